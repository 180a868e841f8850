package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/voxelworld/internal/auth"
	"github.com/annel0/voxelworld/internal/render"
	"github.com/klauspost/compress/zstd"
)

const defaultServerAddr = "http://localhost:8088"

func main() {
	var (
		serverAddr = flag.String("server", defaultServerAddr, "REST API address")
		command    = flag.String("cmd", "status", "Command: status, secret, hash, token, get, set, ray, break, place, mesh")
		password   = flag.String("password", "", "Operator password (hash, token)")
		editor     = flag.String("editor", "cli", "Editor name for issued token")
		token      = flag.String("token", os.Getenv("VOXEL_TOKEN"), "Edit token (defaults to $VOXEL_TOKEN)")
		pos        = flag.String("pos", "0,0,0", "Block or chunk coordinates x,y,z")
		origin     = flag.String("origin", "0,20,0", "Ray origin x,y,z")
		target     = flag.String("target", "0,0,0", "Ray target x,y,z")
		blockID    = flag.Int("id", 3, "Block id (set, place)")
		timeout    = flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	)
	flag.Parse()

	c := &client{
		base:  strings.TrimRight(*serverAddr, "/"),
		token: *token,
		http:  &http.Client{Timeout: *timeout},
	}

	var err error
	switch *command {
	case "secret":
		var secret string
		if secret, err = auth.GenerateSecureSecret(); err == nil {
			fmt.Println(secret)
		}

	case "hash":
		var hash string
		if hash, err = auth.HashPassword(*password); err == nil {
			fmt.Println(hash)
		}

	case "status":
		err = c.printJSON(http.MethodGet, "/api/status", nil)

	case "token":
		err = c.printJSON(http.MethodPost, "/api/token", map[string]string{"editor": *editor, "password": *password})

	case "get":
		var p [3]int
		if p, err = parseInts(*pos); err == nil {
			err = c.printJSON(http.MethodGet, fmt.Sprintf("/api/blocks?x=%d&y=%d&z=%d", p[0], p[1], p[2]), nil)
		}

	case "set":
		var p [3]int
		if p, err = parseInts(*pos); err == nil {
			err = c.printJSON(http.MethodPut, "/api/blocks", map[string]int{"x": p[0], "y": p[1], "z": p[2], "id": *blockID})
		}

	case "ray", "break", "place":
		err = c.ray(*command, *origin, *target, *blockID)

	case "mesh":
		err = c.mesh(*pos)

	default:
		log.Fatalf("❌ Unknown command: %s", *command)
	}

	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) request(method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// printJSON выполняет запрос и печатает ответ с отступами
func (c *client) printJSON(method, path string, body interface{}) error {
	resp, err := c.request(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") != nil {
		pretty.Reset()
		pretty.Write(data)
	}
	fmt.Println(pretty.String())

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func (c *client) ray(command, origin, target string, id int) error {
	o, err := parseFloats(origin)
	if err != nil {
		return err
	}
	t, err := parseFloats(target)
	if err != nil {
		return err
	}

	body := map[string]interface{}{"origin": o, "target": t}
	path := "/api/raycast"
	switch command {
	case "break":
		path = "/api/break"
	case "place":
		path = "/api/place"
		body["id"] = id
	}
	return c.printJSON(http.MethodPost, path, body)
}

// mesh скачивает меш чанка и печатает его размеры
func (c *client) mesh(pos string) error {
	p, err := parseInts(pos)
	if err != nil {
		return err
	}

	resp, err := c.request(http.MethodGet, fmt.Sprintf("/api/chunks/%d/%d/%d/mesh", p[0], p[1], p[2]), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(blob)))
	}

	codec, err := render.NewMeshCodec(zstd.SpeedDefault)
	if err != nil {
		return err
	}
	defer codec.Close()

	mesh, err := codec.Decode(blob)
	if err != nil {
		return err
	}

	fmt.Printf("📦 Chunk (%d,%d,%d): %d bytes compressed\n", p[0], p[1], p[2], len(blob))
	fmt.Printf("   quads:    %d\n", mesh.QuadCount())
	fmt.Printf("   vertices: %d (%d bytes)\n", len(mesh.Vertices), len(mesh.Vertices)*render.VertexSize)
	fmt.Printf("   indices:  %d\n", mesh.IndexCount)
	return nil
}

func parseInts(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected x,y,z, got %q", s)
	}
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return out, fmt.Errorf("invalid coordinate %q: %w", part, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(s string) ([3]float32, error) {
	var out [3]float32
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected x,y,z, got %q", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return out, fmt.Errorf("invalid coordinate %q: %w", part, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
