package music

import "strings"

// Role is a closed enumeration of credit roles.
type Role string

const (
	// Writing
	RoleWriter   Role = "Writer"
	RoleComposer Role = "Composer"
	RoleLyricist Role = "Lyricist"

	// Production
	RoleProducer          Role = "Producer"
	RoleCoProducer        Role = "Co-Producer"
	RoleExecutiveProducer Role = "Executive Producer"
	RoleVocalProducer     Role = "Vocal Producer"
	RoleProgrammer        Role = "Programmer"
	RoleArranger          Role = "Arranger"

	// Studio
	RoleMixingEngineer    Role = "Mixing Engineer"
	RoleMasteringEngineer Role = "Mastering Engineer"
	RoleRecordingEngineer Role = "Recording Engineer"
	RoleEngineer          Role = "Engineer"
	RoleStudioPersonnel   Role = "Studio Personnel"

	// Vocals
	RoleVocals           Role = "Vocals"
	RoleLeadVocals       Role = "Lead Vocals"
	RoleBackgroundVocals Role = "Background Vocals"
	RoleAdditionalVocals Role = "Additional Vocals"

	// Label and publishing
	RoleLabel       Role = "Label"
	RolePublisher   Role = "Publisher"
	RoleDistributor Role = "Distributor"

	// Instruments
	RoleGuitar      Role = "Guitar"
	RoleBass        Role = "Bass"
	RoleDrums       Role = "Drums"
	RoleKeyboard    Role = "Keyboard"
	RolePiano       Role = "Piano"
	RoleStrings     Role = "Strings"
	RoleSynthesizer Role = "Synthesizer"
	RolePercussion  Role = "Percussion"
	RoleScratches   Role = "Scratches"

	// Video
	RoleVideoDirector Role = "Video Director"
	RoleVideoProducer Role = "Video Producer"
	RoleVideoEditor   Role = "Video Editor"

	RoleFeatured      Role = "Featured Artist"
	RoleSample        Role = "Sample"
	RoleInterpolation Role = "Interpolation"
	RoleOther         Role = "Other"
)

var allRoles = []Role{
	RoleWriter, RoleComposer, RoleLyricist,
	RoleProducer, RoleCoProducer, RoleExecutiveProducer, RoleVocalProducer,
	RoleProgrammer, RoleArranger,
	RoleMixingEngineer, RoleMasteringEngineer, RoleRecordingEngineer,
	RoleEngineer, RoleStudioPersonnel,
	RoleVocals, RoleLeadVocals, RoleBackgroundVocals, RoleAdditionalVocals,
	RoleLabel, RolePublisher, RoleDistributor,
	RoleGuitar, RoleBass, RoleDrums, RoleKeyboard, RolePiano,
	RoleStrings, RoleSynthesizer, RolePercussion, RoleScratches,
	RoleVideoDirector, RoleVideoProducer, RoleVideoEditor,
	RoleFeatured, RoleSample, RoleInterpolation, RoleOther,
}

// ParseRole maps free-text role labels to the enumeration. Unknown
// labels become RoleOther; callers keep the original text in RoleDetail.
func ParseRole(text string) Role {
	trimmed := strings.TrimSpace(text)
	for _, r := range allRoles {
		if strings.EqualFold(string(r), trimmed) {
			return r
		}
	}
	return RoleOther
}

// Credit is an immutable credit entry on a track. Equality is structural
// on (name, role, role detail); the source does not participate so the
// same credit reported by two providers is stored once.
type Credit struct {
	Name       string
	Role       Role
	RoleDetail string
	Source     string
}

// Equal reports structural equality.
func (c Credit) Equal(o Credit) bool {
	return c.Name == o.Name && c.Role == o.Role && c.RoleDetail == o.RoleDetail
}

// CreditsFromRole builds one credit per name for a free-text role label.
// Empty names are skipped.
func CreditsFromRole(roleText, source string, names []string) []Credit {
	role := ParseRole(roleText)
	detail := ""
	if role == RoleOther {
		detail = strings.TrimSpace(roleText)
	}

	var credits []Credit
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		credits = append(credits, Credit{
			Name:       name,
			Role:       role,
			RoleDetail: detail,
			Source:     source,
		})
	}
	return credits
}
