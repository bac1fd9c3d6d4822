// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package risk scores AI system profiles against an additive rule set
// and maps the result onto the EU AI Act risk tiers.
//
// Rule sets are YAML documents; the default set ships embedded in the
// policy package. Assessments are deterministic: no clocks, no IDs, no
// map-ordering leaks reach the Result.
package risk
