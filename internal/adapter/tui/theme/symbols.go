package theme

import (
	"os"
	"strings"
)

// SymbolSet holds the UI glyphs, with an ASCII fallback set.
type SymbolSet struct {
	Success string
	Error   string
	Spinner string
	ArrowR  string
	Bullet  string
	User    string
}

var unicodeSymbols = SymbolSet{
	Success: "✓",
	Error:   "✗",
	Spinner: "⏳",
	ArrowR:  "→",
	Bullet:  "•",
	User:    "You",
}

var asciiSymbols = SymbolSet{
	Success: "[OK]",
	Error:   "[ERR]",
	Spinner: "[...]",
	ArrowR:  "->",
	Bullet:  "*",
	User:    "You",
}

var (
	SymbolSuccess = unicodeSymbols.Success
	SymbolError   = unicodeSymbols.Error
	SymbolSpinner = unicodeSymbols.Spinner
	SymbolArrowR  = unicodeSymbols.ArrowR
	SymbolBullet  = unicodeSymbols.Bullet
	SymbolUser    = unicodeSymbols.User
)

// DetectUnicodeSupport reports whether the terminal likely renders Unicode.
// DEVTEAM_ASCII_SYMBOLS=1 forces ASCII.
func DetectUnicodeSupport() bool {
	if v := os.Getenv("DEVTEAM_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		return false
	}
	return true
}

// InitSymbols selects the symbol set for the current environment.
func InitSymbols() {
	set := unicodeSymbols
	if !DetectUnicodeSupport() {
		set = asciiSymbols
	}
	SymbolSuccess = set.Success
	SymbolError = set.Error
	SymbolSpinner = set.Spinner
	SymbolArrowR = set.ArrowR
	SymbolBullet = set.Bullet
	SymbolUser = set.User
}

func init() {
	InitSymbols()
}
