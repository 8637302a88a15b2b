// Package depth caches the latest sensor depth frame and answers distance
// queries over view-space regions.
//
// A depth plane arrives as raw little-endian 16-bit samples (millimetres,
// 0 meaning "no return"). The Cache decodes it once per distinct frame
// timestamp; Frame.Query then samples a region and returns the median
// distance in meters. The median rejects edge pixels where depth bleeds
// onto the background behind an object.
//
//	cache := depth.NewCache()
//	frame, err := cache.EnsurePlane(plane)
//	if err == nil {
//	    if meters, ok := frame.Query(box, viewW, viewH, depth.DefaultStride); ok {
//	        ...
//	    }
//	}
package depth

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/teslashibe/go-wayfinder/pkg/geom"
)

// DefaultStride is the sampling step, in view pixels, used by Query callers.
const DefaultStride = 4

// Plane is a raw depth plane as handed over by the sensor session.
type Plane struct {
	Timestamp   int64
	Width       int
	Height      int
	RowStride   int // bytes between rows
	PixelStride int // bytes between samples in a row
	Data        []byte
}

// Frame is a decoded depth buffer. Frames are never mutated after decode.
type Frame struct {
	Timestamp int64
	Width     int
	Height    int
	Samples   []uint16 // millimetres, row-major, 0 = invalid
}

// decode copies the plane into a dense Width*Height buffer.
func (p *Plane) decode() (*Frame, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, &DecodeError{Timestamp: p.Timestamp, Reason: "non-positive size"}
	}
	if p.PixelStride < 2 {
		return nil, &DecodeError{Timestamp: p.Timestamp, Reason: "invalid stride"}
	}

	// Geometry comes off the wire. Each bound is checked by division
	// against len(Data) so no product can overflow before the allocation.
	n := len(p.Data)
	if n < 2 || p.Width-1 > (n-2)/p.PixelStride {
		return nil, &DecodeError{Timestamp: p.Timestamp, Reason: "short buffer"}
	}
	rowBytes := (p.Width-1)*p.PixelStride + 2
	if p.RowStride < rowBytes {
		return nil, &DecodeError{Timestamp: p.Timestamp, Reason: "invalid stride"}
	}
	if p.Height-1 > (n-rowBytes)/p.RowStride {
		return nil, &DecodeError{Timestamp: p.Timestamp, Reason: "short buffer"}
	}

	samples := make([]uint16, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		row := y * p.RowStride
		for x := 0; x < p.Width; x++ {
			i := row + x*p.PixelStride
			samples[y*p.Width+x] = binary.LittleEndian.Uint16(p.Data[i:])
		}
	}

	return &Frame{
		Timestamp: p.Timestamp,
		Width:     p.Width,
		Height:    p.Height,
		Samples:   samples,
	}, nil
}

// EncodePlane packs dense millimetre samples into a tightly packed plane.
// It is the inverse of decoding and is used by replays and tests.
func EncodePlane(timestamp int64, width, height int, samples []uint16) *Plane {
	data := make([]byte, width*height*2)
	for i := 0; i < width*height && i < len(samples); i++ {
		binary.LittleEndian.PutUint16(data[i*2:], samples[i])
	}
	return &Plane{
		Timestamp:   timestamp,
		Width:       width,
		Height:      height,
		RowStride:   width * 2,
		PixelStride: 2,
		Data:        data,
	}
}

// Query returns the median distance in meters over a region given in view
// pixels. The view and the depth buffer may have different resolutions.
//
// The region is clipped to [0,viewW]×[0,viewH] and walked every stride
// pixels on both axes (stride <= 0 means 1). Samples of 0 are skipped.
// ok is false for a nil frame, bad view size, empty region or when no
// valid sample was found.
func (f *Frame) Query(region geom.Rect, viewW, viewH, stride int) (meters float64, ok bool) {
	if f == nil || viewW <= 0 || viewH <= 0 || f.Width <= 0 || f.Height <= 0 {
		return 0, false
	}

	rect := region.Intersect(float64(viewW), float64(viewH))
	if !rect.Finite() || rect.Empty() {
		return 0, false
	}
	if stride <= 0 {
		stride = 1
	}
	step := float64(stride)

	var samples []float64
	for y := rect.Top; y <= rect.Bottom; y += step {
		dy := int(math.Round(y / float64(viewH) * float64(f.Height)))
		if dy < 0 || dy >= f.Height {
			continue
		}
		for x := rect.Left; x <= rect.Right; x += step {
			dx := int(math.Round(x / float64(viewW) * float64(f.Width)))
			if dx < 0 || dx >= f.Width {
				continue
			}
			if mm := f.Samples[dy*f.Width+dx]; mm > 0 {
				samples = append(samples, float64(mm)/1000)
			}
		}
	}

	return median(samples)
}

func median(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	sort.Float64s(values)
	mid := n / 2
	if n%2 == 1 {
		return values[mid], true
	}
	return (values[mid-1] + values[mid]) / 2, true
}
