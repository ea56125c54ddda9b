package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/simfs"
)

// ErrInvalidRequest indicates a node definition missing a path or with an unknown type
var ErrInvalidRequest = errors.New("invalid node request")

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (simfs.NodeType, error) {
	var meta struct {
		Type simfs.NodeType `json:"type"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", err
	}
	return meta.Type, nil
}

// UnmarshalNodeRequest parses a single JSON node definition
func UnmarshalNodeRequest(data []byte) (*simfs.CreateRequest, error) {
	var dto NodeRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	return convertNodeDTO(dto)
}

// UnmarshalNodeRequests parses a list of node definitions in the given format
// ("json" or "yaml"). Requests keep the order of the list.
func UnmarshalNodeRequests(data []byte, format string) ([]*simfs.CreateRequest, error) {
	var dtos []NodeRequestDTO
	switch format {
	case "json":
		if err := json.Unmarshal(data, &dtos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON node requests: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &dtos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML node requests: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported node request format: %s", format)
	}

	reqs := make([]*simfs.CreateRequest, 0, len(dtos))
	for i, dto := range dtos {
		req, err := convertNodeDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("node request %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// LoadNodeRequestsFile reads node definitions from a .json, .yaml or .yml file
func LoadNodeRequestsFile(path string) ([]*simfs.CreateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node requests file: %w", err)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return UnmarshalNodeRequests(data, ext)
}

// Conversion logic with defaults in the unmarshaling layer
func convertNodeDTO(dto NodeRequestDTO) (*simfs.CreateRequest, error) {
	if strings.TrimSpace(dto.Path) == "" {
		return nil, fmt.Errorf("%w: missing path", ErrInvalidRequest)
	}
	if !dto.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q for %s", ErrInvalidRequest, dto.Type, dto.Path)
	}

	req := &simfs.CreateRequest{
		Path:  dto.Path,
		Type:  dto.Type,
		UUID:  valueOrDefault(dto.UUID, uuid.New().String()),
		Perms: valueOrDefault(dto.Perms, ""),
		Owner: valueOrDefault(dto.Owner, ""),
	}
	if dto.Type == simfs.FileNodeType {
		req.Content = []byte(valueOrDefault(dto.Content, ""))
	}
	return req, nil
}

func valueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
