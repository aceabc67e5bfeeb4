package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{
			name: "draft to published",
			from: PostStatusDraft,
			to:   PostStatusPublished,
			want: true,
		},
		{
			name: "draft to archived",
			from: PostStatusDraft,
			to:   PostStatusArchived,
			want: true,
		},
		{
			name: "published to archived",
			from: PostStatusPublished,
			to:   PostStatusArchived,
			want: true,
		},
		{
			name: "published to draft",
			from: PostStatusPublished,
			to:   PostStatusDraft,
			want: false,
		},
		{
			name: "archived to published",
			from: PostStatusArchived,
			to:   PostStatusPublished,
			want: false,
		},
		{
			name: "archived to draft",
			from: PostStatusArchived,
			to:   PostStatusDraft,
			want: false,
		},
		{
			name: "draft to draft",
			from: PostStatusDraft,
			to:   PostStatusDraft,
			want: false,
		},
		{
			name: "unknown status",
			from: "pending",
			to:   PostStatusPublished,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsValidPostStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{PostStatusDraft, true},
		{PostStatusPublished, true},
		{PostStatusArchived, true},
		{"pending", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidPostStatus(tt.status); got != tt.want {
			t.Errorf("IsValidPostStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
