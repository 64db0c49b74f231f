// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package services adapts blocking components to suture.Service.
//
// HTTPServerService turns http.Server's ListenAndServe/Shutdown pair into a
// context-driven Serve. JanitorService runs a periodic sweep, such as
// pruning expired API responses. The sync scheduler already implements Serve(ctx) and
// needs no wrapper.
package services
