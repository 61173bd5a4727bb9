// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

func exitCodeFor(k Kind) int {
	switch k {
	case KindNotFound:
		return 4
	case KindBadRequest, KindNotUtf8:
		return 2
	case KindDisconnected:
		return 3
	default:
		return 1
	}
}

func fatal(err error, jsonMode bool) {
	kind := KindOf(err)
	if jsonMode {
		payload := map[string]any{
			"error": err.Error(),
			"kind":  kind.String(),
		}
		var e *Error
		if as, ok := err.(*Error); ok {
			e = as
			if len(e.Suggestions) > 0 {
				payload["suggestions"] = e.Suggestions
			}
		}
		enc, encErr := json.Marshal(payload)
		if encErr == nil {
			fmt.Fprintln(os.Stderr, string(enc))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCodeFor(kind))
}
