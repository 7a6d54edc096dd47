package app

import (
	"testing"

	"github.com/google/uuid"
)

func TestEncodePaycheckComment(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	tests := []struct {
		name      string
		base      string
		groupName string
		want      string
	}{
		{
			name:      "with group name",
			base:      "Rent for March",
			groupName: "Flatmates",
			want:      "Rent for March [Flatmates] [11111111-1111-1111-1111-111111111111]",
		},
		{
			name: "without group name",
			base: "Rent for March",
			want: "Rent for March [11111111-1111-1111-1111-111111111111]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodePaycheckComment(tt.base, tt.groupName, id)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractPaycheckID(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    string
		wantOK  bool
	}{
		{
			name:    "token with surrounding text",
			comment: "Rent for March [Flatmates] [11111111-1111-1111-1111-111111111111]",
			want:    "11111111-1111-1111-1111-111111111111",
			wantOK:  true,
		},
		{
			name:    "token without embedding group name",
			comment: "[2f77c2f5-c857-4895-9589-e3915e85a43e]",
			want:    "2f77c2f5-c857-4895-9589-e3915e85a43e",
			wantOK:  true,
		},
		{
			name:    "no token",
			comment: "Coffee at the corner shop",
			wantOK:  false,
		},
		{
			name:    "uuid without brackets is not a token",
			comment: "ref 11111111-1111-1111-1111-111111111111",
			wantOK:  false,
		},
		{
			name:    "uppercase uuid is not a token",
			comment: "[11111111-1111-1111-1111-11111111111A]",
			wantOK:  false,
		},
		{
			name:    "two tokens picks the leftmost",
			comment: "[11111111-1111-1111-1111-111111111111] [2f77c2f5-c857-4895-9589-e3915e85a43e]",
			want:    "11111111-1111-1111-1111-111111111111",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPaycheckID(tt.comment)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%t, got %t", tt.wantOK, ok)
			}
			if ok && got.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCorrelationRoundTrip(t *testing.T) {
	for _, base := range []string{"", "Utilities", "Dinner [Friday]"} {
		id := uuid.New()
		comment := EncodePaycheckComment(base, "Orcas", id)
		got, ok := ExtractPaycheckID(comment)
		if !ok {
			t.Fatalf("round trip lost the token for base %q", base)
		}
		if got != id {
			t.Fatalf("round trip returned %s, want %s", got, id)
		}
	}
}
