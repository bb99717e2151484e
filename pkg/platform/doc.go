// SPDX-License-Identifier: MPL-2.0

// Package platform classifies operating systems into the three loader families
// (Windows, Linux/Android, Darwin/iOS) and centralizes the per-family constants
// the loader needs: shared-library file pattern and the dynamic-library search
// path environment variable.
package platform
