// Package catalog maps raw catalog records (products, shapes, materials,
// borders, motifs, additions and fonts) into the typed options a design
// consumes, and resolves free-text slugs back to catalog entries.
//
// Raw records arrive as heterogeneous attribute bags. Decode turns each bag
// into one variant of the Record union; MapRecord is an exhaustive match over
// that union and never fails on a known variant.
package catalog
