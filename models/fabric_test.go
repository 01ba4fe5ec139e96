package models

import (
	"testing"
)

func TestFabricColourEffectiveOverrides(t *testing.T) {
	cases := []struct {
		name           string
		colourLead     int
		colourMinOrder string
		fabricLead     int
		fabricMinOrder string
		wantLead       int
		wantMinOrder   string
	}{
		{"both overridden", 7, "25", 14, "100", 7, "25"},
		{"lead inherited", 0, "25", 14, "100", 14, "25"},
		{"min order inherited", 7, "0", 14, "100", 7, "100"},
		{"both inherited", 0, "0", 14, "100", 14, "100"},
		{"negative min order inherits", 7, "-1", 14, "100", 7, "100"},
	}

	for _, tc := range cases {
		colour := FabricColour{LeadTimeDays: tc.colourLead, MinOrderQty: d(tc.colourMinOrder)}
		fabric := Fabric{LeadTimeDays: tc.fabricLead, MinOrderQty: d(tc.fabricMinOrder)}

		if got := colour.EffectiveLeadTimeDays(&fabric); got != tc.wantLead {
			t.Fatalf("%s: EffectiveLeadTimeDays expected %d, got %d", tc.name, tc.wantLead, got)
		}
		if got := colour.EffectiveMinOrderQty(&fabric); !got.Equal(d(tc.wantMinOrder)) {
			t.Fatalf("%s: EffectiveMinOrderQty expected %s, got %s", tc.name, tc.wantMinOrder, got)
		}
	}
}
