// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package checklist derives compliance checklists from static
// requirement libraries.
//
// Three libraries ship with the package: the EU AI Act (prohibition
// notice, Chapter 2 high-risk obligations, Article 52 transparency
// duties, voluntary codes), the NIST AI RMF functions, and the ISO/IEC
// 42001 management clauses. A derivation filters one library by risk
// tier and, optionally, system class; it never re-sorts, so checklists
// read in the order the library groups them.
//
// The deriver tracks no completion state. Items come back with
// Completed=false every time; persisting progress belongs to the
// caller, and Analyze turns a caller-updated checklist back into
// completion statistics.
package checklist
