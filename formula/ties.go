// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package formula

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTiePolicy = errors.New("invalid tie policy")

// TiePolicy controls how records with equal values are ranked
type TiePolicy string

const (
	// Ordinal gives every record a distinct rank following stable sort order
	Ordinal TiePolicy = "ordinal"

	// MinRank gives equal values the lowest rank of their group
	MinRank TiePolicy = "min"
)

func ParseTiePolicy(s string) (TiePolicy, error) {
	switch TiePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Ordinal:
		return Ordinal, nil
	case MinRank:
		return MinRank, nil
	default:
		return "", fmt.Errorf("%w: %q (expected ordinal or min)", ErrInvalidTiePolicy, s)
	}
}
