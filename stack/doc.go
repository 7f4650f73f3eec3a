// Package stack keeps a clipmap's layer atlases in sync with a moving view.
//
// A Stack owns one fixed-size atlas per mip level. Each Update
//
//  1. clamps the view to the virtual texture,
//  2. selects the finest level the scale needs,
//  3. computes every refreshed layer's target region,
//  4. diffs it against the region the layer already holds,
//  5. requests the pages covering the difference from the cache,
//  6. copies the resident ones into the atlas at their toroidal address,
//  7. commits the new region.
//
// The atlas is a sliding window: world pixel (x, y) of a layer is stored
// at atlas pixel (x mod size, y mod size), and each layer's SlotMap records
// which page owns which atlas pixels.
//
// Lifecycle is explicit: New, then Init (or the first Update), then
// Update once per frame, then Close.
package stack
