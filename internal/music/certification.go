package music

import (
	"strings"
	"time"
)

// CertLevel is a certification level as published by a certifying body.
type CertLevel string

const (
	// SNEP (France)
	LevelOr               CertLevel = "Or"
	LevelDoubleOr         CertLevel = "Double Or"
	LevelTripleOr         CertLevel = "Triple Or"
	LevelPlatine          CertLevel = "Platine"
	LevelDoublePlatine    CertLevel = "Double Platine"
	LevelTriplePlatine    CertLevel = "Triple Platine"
	LevelDiamant          CertLevel = "Diamant"
	LevelDoubleDiamant    CertLevel = "Double Diamant"
	LevelTripleDiamant    CertLevel = "Triple Diamant"
	LevelQuadrupleDiamant CertLevel = "Quadruple Diamant"

	// International
	LevelGold     CertLevel = "Gold"
	LevelPlatinum CertLevel = "Platinum"
	LevelDiamond  CertLevel = "Diamond"
)

var certLevels = []CertLevel{
	LevelOr, LevelDoubleOr, LevelTripleOr,
	LevelPlatine, LevelDoublePlatine, LevelTriplePlatine,
	LevelDiamant, LevelDoubleDiamant, LevelTripleDiamant, LevelQuadrupleDiamant,
	LevelGold, LevelPlatinum, LevelDiamond,
}

// ParseCertLevel maps a label to a level, tolerating case and spacing
// variants. Returns false when the label is not a known level.
func ParseCertLevel(text string) (CertLevel, bool) {
	cleaned := strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
	for _, lv := range certLevels {
		if strings.EqualFold(string(lv), cleaned) {
			return lv, true
		}
	}
	return "", false
}

// CertCategory is the certified format.
type CertCategory string

const (
	CategorySingles CertCategory = "Singles"
	CategoryAlbums  CertCategory = "Albums"
	CategoryVideos  CertCategory = "Vidéos"
	CategoryDVD     CertCategory = "DVD"
)

// ParseCertCategory maps a label to a category, defaulting to Singles.
func ParseCertCategory(text string) CertCategory {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "albums", "album":
		return CategoryAlbums
	case "vidéos", "videos", "vidéo", "video":
		return CategoryVideos
	case "dvd":
		return CategoryDVD
	default:
		return CategorySingles
	}
}

// Certification is one certified award for a track. Equality ignores
// dates so re-imports of the same award stay idempotent.
type Certification struct {
	Level       CertLevel
	Category    CertCategory
	CertifiedAt time.Time
	ReleasedAt  time.Time
	Publisher   string
	Country     string
	Body        string
}

// Equal reports whether two certifications denote the same award.
func (c Certification) Equal(o Certification) bool {
	return c.Level == o.Level && c.Category == o.Category && c.Body == o.Body
}
