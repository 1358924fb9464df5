package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gplace-dev/gplace/pkg/cache"
	"github.com/gplace-dev/gplace/pkg/netlist"
)

// Design is the TOML design-file schema: region bounds, objects, and net
// connectivity. It stands in for the physical design database, which in a
// full flow supplies the same data and receives the placed coordinates.
type Design struct {
	Region  designRegion `toml:"region"`
	Objects []designObj  `toml:"objects"`
	Nets    []designNet  `toml:"nets"`
}

type designRegion struct {
	MinX float64 `toml:"min_x"`
	MinY float64 `toml:"min_y"`
	MaxX float64 `toml:"max_x"`
	MaxY float64 `toml:"max_y"`
}

type designObj struct {
	ID     string  `toml:"id"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Fixed  bool    `toml:"fixed,omitempty"`
}

type designNet struct {
	Weight float64     `toml:"weight,omitempty"`
	Pins   []designPin `toml:"pins"`
}

// designPin references objects by ID, not index, so design files stay
// readable and reorderable.
type designPin struct {
	Object string  `toml:"object"`
	OffX   float64 `toml:"off_x,omitempty"`
	OffY   float64 `toml:"off_y,omitempty"`
}

// loadDesign reads a TOML design file and builds the netlist from it.
func loadDesign(path string) (*netlist.Netlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read design: %w", err)
	}

	var d Design
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse design: %w", err)
	}
	return d.build()
}

// build converts the file schema into a netlist, resolving pin object IDs
// to indices.
func (d *Design) build() (*netlist.Netlist, error) {
	index := make(map[string]int, len(d.Objects))
	objects := make([]netlist.Object, len(d.Objects))
	for i, o := range d.Objects {
		if _, dup := index[o.ID]; dup {
			return nil, fmt.Errorf("duplicate object id %q", o.ID)
		}
		index[o.ID] = i
		objects[i] = netlist.Object{
			ID:     o.ID,
			Width:  o.Width,
			Height: o.Height,
			X:      o.X,
			Y:      o.Y,
			Fixed:  o.Fixed,
		}
	}

	nets := make([]netlist.Net, len(d.Nets))
	for i, n := range d.Nets {
		pins := make([]netlist.Pin, len(n.Pins))
		for j, p := range n.Pins {
			obj, ok := index[p.Object]
			if !ok {
				return nil, fmt.Errorf("net %d pin %d references unknown object %q", i, j, p.Object)
			}
			pins[j] = netlist.Pin{Object: obj, OffX: p.OffX, OffY: p.OffY}
		}
		nets[i] = netlist.Net{Pins: pins, Weight: n.Weight}
	}

	region := netlist.Region{MinX: d.Region.MinX, MinY: d.Region.MinY, MaxX: d.Region.MaxX, MaxY: d.Region.MaxY}
	nl, err := netlist.New(region, objects, nets)
	if err != nil {
		return nil, fmt.Errorf("build netlist: %w", err)
	}
	return nl, nil
}

// writeDesign writes the netlist back out as a design file with the placed
// coordinates, preserving connectivity so the output is itself a valid
// input.
func writeDesign(path string, nl *netlist.Netlist) error {
	d := Design{
		Region: designRegion{
			MinX: nl.Region.MinX, MinY: nl.Region.MinY,
			MaxX: nl.Region.MaxX, MaxY: nl.Region.MaxY,
		},
		Objects: make([]designObj, len(nl.Objects)),
		Nets:    make([]designNet, len(nl.Nets)),
	}
	for i := range nl.Objects {
		o := &nl.Objects[i]
		d.Objects[i] = designObj{
			ID: o.ID, Width: o.Width, Height: o.Height,
			X: o.X, Y: o.Y, Fixed: o.Fixed,
		}
	}
	for i := range nl.Nets {
		n := &nl.Nets[i]
		pins := make([]designPin, len(n.Pins))
		for j, p := range n.Pins {
			pins[j] = designPin{Object: nl.Objects[p.Object].ID, OffX: p.OffX, OffY: p.OffY}
		}
		d.Nets[i] = designNet{Weight: n.Weight, Pins: pins}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(d); err != nil {
		return fmt.Errorf("encode design: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write design: %w", err)
	}
	return nil
}

// layoutHash fingerprints the current positions for cache keys.
func layoutHash(nl *netlist.Netlist) string {
	n := nl.NumMovable()
	xs := make([]float64, n)
	ys := make([]float64, n)
	nl.Positions(xs, ys)
	data, _ := json.Marshal([2][]float64{xs, ys})
	return cache.Hash(data)
}
