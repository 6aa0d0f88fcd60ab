package music

import (
	"fmt"
	"strings"
)

// Pitch-class names in French notation, as used by the canonical store.
var frenchNotes = [12]string{
	"Do", "Do#/Réb", "Ré", "Ré#/Mib", "Mi", "Fa",
	"Fa#/Solb", "Sol", "Sol#/Lab", "La", "La#/Sib", "Si",
}

// KeyModeName converts a pitch class (0=C..11=B) and mode (1=major,
// 0=minor) into French notation, e.g. "Ré mineur".
func KeyModeName(key, mode int) (string, error) {
	if key < 0 || key > 11 {
		return "", fmt.Errorf("pitch class out of range: %d", key)
	}
	modeName := "mineur"
	if mode == 1 {
		modeName = "majeur"
	}
	return frenchNotes[key] + " " + modeName, nil
}

var pitchClasses = map[string]int{
	"C": 0, "C#": 1, "DB": 1, "D": 2, "D#": 3, "EB": 3,
	"E": 4, "F": 5, "F#": 6, "GB": 6, "G": 7, "G#": 8,
	"AB": 8, "A": 9, "A#": 10, "BB": 10, "B": 11,
}

// ParseNote maps an English note name ("F#", "Bb") to its pitch class.
func ParseNote(note string) (int, error) {
	pc, ok := pitchClasses[strings.ToUpper(strings.TrimSpace(note))]
	if !ok {
		return 0, fmt.Errorf("unknown note %q", note)
	}
	return pc, nil
}

// KeyScaleName converts an English note and scale ("minor"/"major") into
// French notation.
func KeyScaleName(note, scale string) (string, error) {
	pc, err := ParseNote(note)
	if err != nil {
		return "", err
	}
	mode := 0
	if strings.EqualFold(strings.TrimSpace(scale), "major") {
		mode = 1
	}
	return KeyModeName(pc, mode)
}
