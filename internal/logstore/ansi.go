package logstore

import "regexp"

// ansiRE matches CSI sequences (colors, cursor movement) and OSC
// sequences (titles, hyperlinks) terminated by BEL or ST.
var ansiRE = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(?:\x07|\x1b\\)?)`)

// StripANSI removes terminal escape sequences from s and reports
// whether any were present.
func StripANSI(s string) (string, bool) {
	if !ansiRE.MatchString(s) {
		return s, false
	}
	return ansiRE.ReplaceAllString(s, ""), true
}
