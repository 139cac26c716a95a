// Package worldfile loads a world directory (world.json, characters.json and
// an ASCII map) into the kernel's initial state. The kernel treats the
// result as a one-time immutable input.
package worldfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hamlet-sim/hamlet-sim/sim"
)

const (
	worldFileName      = "world.json"
	charactersFileName = "characters.json"
	defaultMapFile     = "world.map"
	rootNodeID         = "world"
)

// Definition is everything the loader hands the kernel at startup.
type Definition struct {
	State   *sim.CanonicalState
	Graph   *sim.LocationGraph
	Catalog sim.ObjectCatalog
}

type boundsDef struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type roomDef struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Bounds *boundsDef `json:"bounds"`
}

type objectDef struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	RoomID string            `json:"room_id"`
	Type   string            `json:"type"`
	State  string            `json:"state"`
	Attrs  map[string]string `json:"attrs"`
}

type transitionDef struct {
	State        string `json:"state"`
	Verb         string `json:"verb"`
	Next         string `json:"next"`
	Success      bool   `json:"success"`
	NarrationKey string `json:"narration_key"`
}

type worldDef struct {
	MapFile     string                     `json:"map_file"`
	Rooms       []roomDef                  `json:"rooms"`
	Portals     [][2]string                `json:"portals"`
	Objects     []objectDef                `json:"objects"`
	Transitions map[string][]transitionDef `json:"transitions"`
}

type characterDef struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	StartRoomID string   `json:"start_room_id"`
	PatrolRoute []string `json:"patrol_route"`
}

type charactersDef struct {
	Characters []characterDef `json:"characters"`
}

// Load reads, validates and assembles a world directory. Structural
// problems the schemas cannot express (dangling room references, duplicate
// ids) surface through the tree's own Validate, which Load runs before
// returning.
func Load(dir string) (*Definition, error) {
	var world worldDef
	if err := loadValidated(filepath.Join(dir, worldFileName), worldSchema, &world); err != nil {
		return nil, err
	}
	var chars charactersDef
	if err := loadValidated(filepath.Join(dir, charactersFileName), charactersSchema, &chars); err != nil {
		return nil, err
	}

	mapFile := world.MapFile
	if mapFile == "" {
		mapFile = defaultMapFile
	}
	if err := checkMap(filepath.Join(dir, mapFile), world.Rooms); err != nil {
		return nil, err
	}

	tree := sim.NewWorldTree(rootNodeID, "World")
	graph := sim.NewLocationGraph()
	state := sim.NewCanonicalState(tree)

	for _, room := range world.Rooms {
		name := room.Name
		if name == "" {
			name = titleCase(room.ID)
		}
		if err := tree.AddNode(&sim.Node{ID: room.ID, Name: name, Kind: sim.NodeArea}, rootNodeID); err != nil {
			return nil, err
		}
		graph.AddNode(room.ID)
	}
	// Rooms sharing the world root are not implicitly connected; adjacency
	// comes from the portal list alone.
	for _, portal := range world.Portals {
		if !graph.Has(portal[0]) || !graph.Has(portal[1]) {
			return nil, fmt.Errorf("portal %v references unknown room", portal)
		}
		graph.AddEdge(portal[0], portal[1])
	}

	for _, obj := range world.Objects {
		name := obj.Name
		if name == "" {
			name = titleCase(obj.ID)
		}
		if err := tree.AddNode(&sim.Node{ID: obj.ID, Name: name, Kind: sim.NodeObject}, obj.RoomID); err != nil {
			return nil, err
		}
		state.Objects[obj.ID] = &sim.Object{
			ID:    obj.ID,
			Type:  obj.Type,
			State: obj.State,
			Attrs: obj.Attrs,
		}
	}

	for _, char := range chars.Characters {
		name := char.Name
		if name == "" {
			name = titleCase(char.ID)
		}
		if err := tree.AddNode(&sim.Node{ID: char.ID, Name: name, Kind: sim.NodeAgent}, char.StartRoomID); err != nil {
			return nil, err
		}
		route := char.PatrolRoute
		if len(route) == 0 {
			route = []string{char.StartRoomID}
		}
		state.Agents[char.ID] = &sim.Agent{
			ID:          char.ID,
			Name:        name,
			LocationID:  char.StartRoomID,
			PatrolRoute: route,
		}
	}

	if err := tree.Validate(); err != nil {
		return nil, err
	}

	catalog := sim.DefaultCatalog()
	for objType, rows := range world.Transitions {
		table := make(sim.TransitionTable, len(rows))
		for _, row := range rows {
			table[sim.StateVerb{State: row.State, Verb: sim.Verb(row.Verb)}] = sim.Transition{
				Next:         row.Next,
				Success:      row.Success,
				NarrationKey: row.NarrationKey,
			}
		}
		catalog[objType] = table
	}

	return &Definition{State: state, Graph: graph, Catalog: catalog}, nil
}

// loadValidated reads a JSON file, checks it against its schema, and decodes
// it into out.
func loadValidated(path, schema string, out any) (err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read world file: %w", err)
	}
	compiled, err := jsonschema.CompileString(filepath.Base(path)+".schema", schema)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// titleCase capitalizes the first letter of an id used as a fallback name.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// checkMap verifies the ASCII map exists and that each room's declared
// bounds fit inside it. The map is cosmetic to the kernel but authoring
// errors should fail at load, not in a viewer later.
func checkMap(path string, rooms []roomDef) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read map file: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	height := len(lines)
	width := 0
	for _, line := range lines {
		if len(line) > width {
			width = len(line)
		}
	}
	for _, room := range rooms {
		b := room.Bounds
		if b == nil {
			continue
		}
		if b.X+b.Width > width || b.Y+b.Height > height {
			return fmt.Errorf("room %q bounds exceed map dimensions %dx%d", room.ID, width, height)
		}
	}
	return nil
}
