// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestInfo(t *testing.T) {
	info := Info{
		Version:   "v0.3.1",
		GitCommit: "f3a91c2",
		BuildTime: "2026-08-31T09:00:00Z",
	}

	if info.Version != "v0.3.1" || info.GitCommit != "f3a91c2" || info.BuildTime != "2026-08-31T09:00:00Z" {
		t.Errorf("Info fields not preserved: %+v", info)
	}

	// Before ldflags injection every field is empty
	var zero Info
	if zero != (Info{}) {
		t.Errorf("zero value = %+v, want empty", zero)
	}
}
