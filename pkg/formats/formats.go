// Package formats provides parsers for the motion-replay input formats:
// URDF robot descriptions, STL visual meshes, and motion capture CSV
// streams.
package formats
