// SPDX-License-Identifier: MPL-2.0

// Package loader discovers, orders and opens native modules, then drives
// their lifecycle entry points.
//
// A failure in one module never stops its siblings: open failures are
// registered as failed modules, and faults raised by entry points are
// logged and absorbed. Only a missing file handed to LoadOne or an
// unusable directory handed to LoadAll ends the operation early.
package loader
