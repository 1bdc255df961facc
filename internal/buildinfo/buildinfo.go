// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""

	UserAgent = fmt.Sprintf("streamdarr/%s", Version)
)
