// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package geo extracts geographic entities (points, routes, polygons) from
// JSON embedded in agent text.
package geo
