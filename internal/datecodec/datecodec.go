// Package datecodec converts between canonical sortable date keys (YYYY-MM-DD)
// and the localized display strings shown on course pages ("5 Mar 2026").
//
// Both directions are total: malformed input yields an empty string, never an error.
package datecodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const canonicalLayout = "2006-01-02"

// months holds the display abbreviation for each month, January first.
var months = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// monthIndex maps an abbreviation back to its 1-based month number.
var monthIndex = func() map[string]int {
	idx := make(map[string]int, len(months))
	for i, m := range months {
		idx[m] = i + 1
	}
	return idx
}()

// ToCanonical parses a display string of the shape "<day> <Mon> <year>" and returns
// the zero-padded canonical key.
//
// Returns an empty string if the input does not split into exactly three
// space-separated tokens, a number is padded or signed, the month abbreviation is
// unknown, or the tokens do not form a real calendar date.
func ToCanonical(display string) string {
	parts := strings.Split(display, " ")
	if len(parts) != 3 {
		return ""
	}

	month, ok := monthIndex[parts[1]]
	if !ok {
		return ""
	}
	day, err := strconv.Atoi(parts[0])
	// Only the unpadded, unsigned form that ToDisplay produces is accepted.
	if err != nil || strconv.Itoa(day) != parts[0] {
		return ""
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 1 || year > 9999 || strconv.Itoa(year) != parts[2] {
		return ""
	}

	key := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	// Rejects days like "31 Feb".
	if _, err := time.Parse(canonicalLayout, key); err != nil {
		return ""
	}
	return key
}

// ToDisplay renders a canonical key as a display string without day padding.
//
// Returns an empty string for empty or malformed keys.
func ToDisplay(canonical string) string {
	if canonical == "" {
		return ""
	}
	t, err := time.Parse(canonicalLayout, canonical)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// IsCanonical reports whether key is a well-formed canonical date key.
func IsCanonical(key string) bool {
	_, err := time.Parse(canonicalLayout, key)
	return err == nil
}
