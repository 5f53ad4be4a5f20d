// Package config reads the node's redis.conf: flat `key = value` lines,
// no sections, no nesting. `user = name:password` may repeat; `#`
// starts a comment line.
package config

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// User is one `user = name:password` line.
type User struct {
	Name     string
	Password string
}

// Config is the fully parsed contents of one redis.conf file.
type Config struct {
	Address        string // client listener
	ClusterAddress string // cluster-bus listener
	PublicAddress  string // advertised in headers / MOVED
	AdminAddress   string // optional: gin/prometheus admin surface

	SlotStart uint16
	SlotEnd   uint16

	Role      string // "master" | "replica"
	Seed      string // optional bootstrap peer
	ReplicaOf string // optional master to follow

	NodeTimeout  time.Duration
	SaveInterval time.Duration

	AOFPath      string
	RBDPath      string
	MetadataPath string

	MaxClients int64

	AESKey []byte // pre-shared client-channel key, hex-encoded on disk

	Users []User
}

var (
	ErrMissingRequired = errors.New("config: missing required key")
	ErrBadSlotRange    = errors.New("config: malformed slot_range, want start-end")
)

// Load reads and parses the conf file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw := make(map[string]string)
	var users []User

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitKV(line)
		if !ok {
			continue
		}
		if key == "user" {
			name, pass, ok := strings.Cut(value, ":")
			if ok {
				users = append(users, User{Name: name, Password: pass})
			}
			continue
		}
		raw[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Address:        raw["address"],
		ClusterAddress: raw["cluster_address"],
		PublicAddress:  raw["public_address"],
		AdminAddress:   raw["admin_address"],
		Role:           orDefault(raw["role"], "master"),
		Seed:           raw["seed"],
		ReplicaOf:      raw["replicaof"],
		AOFPath:        raw["aof"],
		RBDPath:        raw["rbd"],
		MetadataPath:   raw["metadata"],
		Users:          users,
	}

	if cfg.Address == "" || cfg.ClusterAddress == "" {
		return nil, fmt.Errorf("%w: address and cluster_address are required", ErrMissingRequired)
	}
	if cfg.PublicAddress == "" {
		cfg.PublicAddress = cfg.Address
	}

	start, end, err := parseSlotRange(raw["slot_range"])
	if err != nil {
		return nil, err
	}
	cfg.SlotStart, cfg.SlotEnd = start, end

	cfg.NodeTimeout = parseMillis(raw["node_timeout"], 1000*time.Millisecond)
	cfg.SaveInterval = parseMillis(raw["save_interval"], 60*1000*time.Millisecond)
	cfg.MaxClients = parseInt64(raw["max_clients"], 10000)

	if keyHex := raw["aes_key"]; keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("config: aes_key: %w", err)
		}
		cfg.AESKey = key
	}

	return cfg, nil
}

func splitKV(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	value = strings.TrimSpace(line[i+1:])
	return key, value, true
}

func parseSlotRange(s string) (uint16, uint16, error) {
	if s == "" {
		return 0, 16384, nil
	}
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, ErrBadSlotRange
	}
	s1, err := strconv.ParseUint(start, 10, 16)
	if err != nil {
		return 0, 0, ErrBadSlotRange
	}
	s2, err := strconv.ParseUint(end, 10, 16)
	if err != nil {
		return 0, 0, ErrBadSlotRange
	}
	return uint16(s1), uint16(s2), nil
}

func parseMillis(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
