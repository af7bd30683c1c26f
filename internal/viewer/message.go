// Package viewer serves live playback output to websocket clients.
//
// The playback engine drives a Server as its sink; every emission is
// encoded as a JSON message and fanned out to all connected clients.
// Static geometry is cached so clients that connect mid-replay still
// receive the full scene.
package viewer

import (
	"encoding/json"

	"github.com/Faultbox/reviz/pkg/formats"
	"github.com/Faultbox/reviz/pkg/math"
)

// Message kinds on the wire.
const (
	kindSetTime         = "set_time"
	kindTransform       = "transform"
	kindMesh            = "mesh"
	kindViewCoordinates = "view_coordinates"
)

// envelope is the outer JSON frame sent to clients.
type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// setTimeData carries the logical frame index.
type setTimeData struct {
	Frame int `json:"frame"`
}

// transformData carries one entity pose. Rotation is a quaternion in
// x, y, z, w order.
type transformData struct {
	Entity      string     `json:"entity"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
}

// meshData carries one static mesh, already expressed in its entity's
// local frame.
type meshData struct {
	Entity   string       `json:"entity"`
	Vertices [][3]float32 `json:"vertices"`
	Indices  []uint32     `json:"indices"`
	Normals  [][3]float32 `json:"normals,omitempty"`
	Colors   [][4]uint8   `json:"colors,omitempty"`
}

// viewCoordinatesData announces the scene's coordinate convention.
type viewCoordinatesData struct {
	Up         string `json:"up"`
	Handedness string `json:"handedness"`
}

func encode(kind string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kind, Data: raw})
}

func encodeSetTime(frame int) ([]byte, error) {
	return encode(kindSetTime, setTimeData{Frame: frame})
}

func encodeTransform(entity string, tf math.Transform) ([]byte, error) {
	return encode(kindTransform, transformData{
		Entity:      entity,
		Translation: [3]float64{tf.Pos.X, tf.Pos.Y, tf.Pos.Z},
		Rotation:    [4]float64{tf.Rot.X, tf.Rot.Y, tf.Rot.Z, tf.Rot.W},
	})
}

func encodeMesh(entity string, mesh *formats.Mesh) ([]byte, error) {
	return encode(kindMesh, meshData{
		Entity:   entity,
		Vertices: mesh.Vertices,
		Indices:  mesh.Indices,
		Normals:  mesh.Normals,
		Colors:   mesh.Colors,
	})
}

func encodeViewCoordinates(up, handedness string) ([]byte, error) {
	return encode(kindViewCoordinates, viewCoordinatesData{Up: up, Handedness: handedness})
}
