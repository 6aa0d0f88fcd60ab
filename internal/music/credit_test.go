package music

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		text string
		want Role
	}{
		{"Producer", RoleProducer},
		{"producer", RoleProducer},
		{" Mixing Engineer ", RoleMixingEngineer},
		{"Video Director", RoleVideoDirector},
		{"Steadicam Operator", RoleOther},
		{"", RoleOther},
	}

	for _, tt := range tests {
		if got := ParseRole(tt.text); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCreditsFromRole(t *testing.T) {
	credits := CreditsFromRole("Producer", "genius", []string{"A", " B ", ""})
	if len(credits) != 2 {
		t.Fatalf("credits = %d, want 2", len(credits))
	}
	if credits[1].Name != "B" {
		t.Errorf("name = %q, want B", credits[1].Name)
	}
	if credits[0].RoleDetail != "" {
		t.Errorf("known role should not carry detail, got %q", credits[0].RoleDetail)
	}

	other := CreditsFromRole("Drone Operator", "genius", []string{"C"})
	if other[0].Role != RoleOther || other[0].RoleDetail != "Drone Operator" {
		t.Errorf("unknown role = %+v, want Other with detail", other[0])
	}
}

func TestParseCertLevel(t *testing.T) {
	if lv, ok := ParseCertLevel("  double   platine "); !ok || lv != LevelDoublePlatine {
		t.Errorf("ParseCertLevel = %q, %v", lv, ok)
	}
	if _, ok := ParseCertLevel("Quintuple Bronze"); ok {
		t.Error("unknown level should not parse")
	}
}

func TestKeyModeName(t *testing.T) {
	got, err := KeyModeName(2, 0)
	if err != nil || got != "Ré mineur" {
		t.Errorf("KeyModeName(2, 0) = %q, %v", got, err)
	}
	got, err = KeyModeName(0, 1)
	if err != nil || got != "Do majeur" {
		t.Errorf("KeyModeName(0, 1) = %q, %v", got, err)
	}
	if _, err := KeyModeName(12, 1); err == nil {
		t.Error("expected error for out-of-range pitch class")
	}
}
