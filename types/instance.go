package types

import (
	"fmt"
	"strings"
)

// sizeLadder orders instance sizes from smallest to largest
var sizeLadder = []string{
	"nano", "micro", "small", "medium", "large",
	"xlarge", "2xlarge", "4xlarge", "8xlarge", "12xlarge", "16xlarge", "24xlarge",
}

// InstanceType describes one configuration candidate: a family + size with
// its capacity dimensions. Sourced from the catalog, read-only here.
type InstanceType struct {
	Family    string `json:"family"`
	Size      string `json:"size"`
	VCPU      int32  `json:"vcpu"`
	MemoryMiB int64  `json:"memory_mib"`
}

// ParseInstanceType splits "m5.xlarge" or "db.t3.medium" into family + size
func ParseInstanceType(name string) (InstanceType, error) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return InstanceType{}, fmt.Errorf("malformed instance type %q", name)
	}
	return InstanceType{
		Family: name[:idx],
		Size:   name[idx+1:],
	}, nil
}

// Name returns the canonical type name
func (t InstanceType) Name() string {
	return t.Family + "." + t.Size
}

// SizeRank returns the size's position on the ladder, or -1 for unknown sizes
func (t InstanceType) SizeRank() int {
	for i, s := range sizeLadder {
		if s == t.Size {
			return i
		}
	}
	return -1
}

// SmallestInLadder reports whether the size cannot be reduced further
func (t InstanceType) SmallestInLadder() bool {
	return t.SizeRank() == 0
}

// SameTier reports whether two types share a size tier
func (t InstanceType) SameTier(other InstanceType) bool {
	return t.Size == other.Size
}

// ResourceKind selects which inventory a resource came from
type ResourceKind string

const (
	KindEC2 ResourceKind = "ec2"
	KindRDS ResourceKind = "rds"
)

// ResourceConfig pairs a running resource with its current configuration,
// as returned by the inventory collaborator.
type ResourceConfig struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Kind         ResourceKind `json:"kind"`
	Region       string       `json:"region"`
	InstanceType InstanceType `json:"instance_type"`
	// Engine is set for RDS resources (postgres, mysql, oracle-ee, ...)
	Engine string `json:"engine,omitempty"`
	// ASGManaged marks EC2 instances owned by an Auto Scaling group;
	// these are never individually downsized
	ASGManaged bool `json:"asg_managed,omitempty"`
}
