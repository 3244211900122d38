package extract

import (
	"regexp"
	"strconv"
)

// Label captures use [ \t]* after the separator so a label with an empty
// value never swallows the following line.
var (
	reState    = regexp.MustCompile(`(?im)^\s*state[ \t]*[:\-][ \t]*([^\r\n]+)`)
	reDistrict = regexp.MustCompile(`(?im)^\s*district[ \t]*[:\-][ \t]*([^\r\n]+)`)
	reVillage  = regexp.MustCompile(`(?im)^\s*(?:village|vill\.)[ \t]*[:\-][ \t]*([^\r\n]+)`)
	rePatta    = regexp.MustCompile(`(?im)^\s*(?:patta[ \t]*holder|claimant|name)[ \t]*[:\-][ \t]*([^\r\n]+)`)

	// IFR-123, IFR No. 123, Claim ID 123
	reIFR = regexp.MustCompile(`(?im)\b(?:ifr(?:[ \t]*(?:no\.?|number))?|claim[ \t]*id)[ \t]*[:\-]?[ \t]*([A-Za-z0-9\-/]+)`)
	// Area: 10 acres, Land Area: 1.25 ha
	reArea = regexp.MustCompile(`(?im)\b(?:area|land[ \t]*area)[ \t]*[:\-][ \t]*([^\r\n]+)`)
	// Claim Status: Approved, Status: Pending
	reStatus = regexp.MustCompile(`(?im)\b(?:claim[ \t]*status|status)[ \t]*[:\-][ \t]*([^\r\n]+)`)
	// Date: ..., Submitted on ..., Verified on ...
	reDateLabel = regexp.MustCompile(`(?im)\b(?:date|submitted[ \t]*on|verified[ \t]*on)[ \t]*[:\-][ \t]*([^\r\n]+)`)
	// 01-Jan-2020, 1/1/2020, 15 Mar 2021, March 15, 2021
	reDateFree = regexp.MustCompile(`(?i)\b(?:\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{1,2}[/\-][A-Za-z]{3,9}[/\-]\d{2,4}|\d{1,2}[ \t]+[A-Za-z]{3,9}[ \t]+\d{4}|[A-Za-z]{3,9}[ \t]+\d{1,2},?[ \t]+\d{4})\b`)
	// 23.1984, 77.0951
	reCoords = regexp.MustCompile(`(?i)\b(-?\d{1,2}\.\d{3,}),\s*(-?\d{1,3}\.\d{3,})\b`)
)

// patternPass runs the label rules over text. Single-valued labels take the
// first hit; village labels and free-form dates take every hit.
func patternPass(text string, bag *Bag) {
	first := func(field Field, re *regexp.Regexp) {
		if m := re.FindStringSubmatchIndex(text); m != nil {
			bag.Add(field, text[m[2]:m[3]], SourcePattern, m[2])
		}
	}

	first(FieldState, reState)
	first(FieldDistrict, reDistrict)
	for _, m := range reVillage.FindAllStringSubmatchIndex(text, -1) {
		bag.Add(FieldVillage, text[m[2]:m[3]], SourcePattern, m[2])
	}
	first(FieldPattaHolder, rePatta)
	first(FieldIFRNumber, reIFR)
	first(FieldLandArea, reArea)
	first(FieldStatus, reStatus)

	// labeled date outranks free-form tokens
	first(FieldDate, reDateLabel)
	for _, m := range reDateFree.FindAllStringIndex(text, -1) {
		bag.Add(FieldDate, text[m[0]:m[1]], SourcePattern, m[0])
	}

	for _, m := range reCoords.FindAllStringSubmatchIndex(text, -1) {
		lat, err1 := strconv.ParseFloat(text[m[2]:m[3]], 64)
		lon, err2 := strconv.ParseFloat(text[m[4]:m[5]], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		bag.AddCoordinate(lat, lon, m[0])
	}
}
