package business

import (
	"os"
	"slices"
	"strings"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RolePolicy lists what holders of a role may do.
type RolePolicy struct {
	Actions []types.Action `yaml:"actions"`
	// Restricted roles may not forward to a top of chain designation.
	Restricted        bool `yaml:"restricted"`
	RemoveAttachments bool `yaml:"remove_attachments"`
	ManageActors      bool `yaml:"manage_actors"`
}

type DesignationPolicy struct {
	TopOfChain bool `yaml:"top_of_chain"`
}

// Policy holds the organisational rules the workflow enforces. Role and
// designation names are matched case insensitively.
type Policy struct {
	Roles        map[string]RolePolicy        `yaml:"roles"`
	Designations map[string]DesignationPolicy `yaml:"designations"`
}

func DefaultPolicy() *Policy {
	signer := []types.Action{
		types.ActionVerify, types.ActionForward, types.ActionRevert, types.ActionApprove, types.ActionReject,
	}
	return &Policy{
		Roles: map[string]RolePolicy{
			"STAFF":        {Actions: []types.Action{types.ActionForward, types.ActionRevert}, Restricted: true},
			"BOARD_MEMBER": {Actions: signer},
			"PRESIDENT":    {Actions: signer},
			"ADMIN":        {Actions: signer, RemoveAttachments: true, ManageActors: true},
		},
		Designations: map[string]DesignationPolicy{
			"PRESIDENT": {TopOfChain: true},
		},
	}
}

// LoadPolicy reads a YAML policy from path, or returns the default policy when path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read workflow policy")
	}
	return ParsePolicy(data)
}

func ParsePolicy(data []byte) (*Policy, error) {
	var raw Policy
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse workflow policy")
	}
	if len(raw.Roles) == 0 {
		return nil, errors.New("workflow policy defines no roles")
	}

	policy := &Policy{
		Roles:        make(map[string]RolePolicy, len(raw.Roles)),
		Designations: make(map[string]DesignationPolicy, len(raw.Designations)),
	}
	for name, role := range raw.Roles {
		for _, action := range role.Actions {
			switch action {
			case types.ActionVerify, types.ActionForward, types.ActionRevert, types.ActionApprove, types.ActionReject:
			default:
				return nil, errors.Errorf("role %s lists unknown action %q", name, action)
			}
		}
		policy.Roles[normalise(name)] = role
	}
	for name, designation := range raw.Designations {
		policy.Designations[normalise(name)] = designation
	}
	return policy, nil
}

func normalise(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (p *Policy) role(name string) (RolePolicy, bool) {
	role, ok := p.Roles[normalise(name)]
	return role, ok
}

// KnowsRole reports whether the policy defines the role.
func (p *Policy) KnowsRole(name string) bool {
	_, ok := p.role(name)
	return ok
}

func (p *Policy) Allows(roleName string, action types.Action) bool {
	role, ok := p.role(roleName)
	return ok && slices.Contains(role.Actions, action)
}

// MayForwardTo applies the recipient eligibility rule for FORWARD.
func (p *Policy) MayForwardTo(actorRole string, recipientDesignation string) bool {
	role, ok := p.role(actorRole)
	if !ok {
		return false
	}
	if !role.Restricted {
		return true
	}
	designation := p.Designations[normalise(recipientDesignation)]
	return !designation.TopOfChain
}

func (p *Policy) MayRemoveAttachments(roleName string) bool {
	role, ok := p.role(roleName)
	return ok && role.RemoveAttachments
}

func (p *Policy) MayManageActors(roleName string) bool {
	role, ok := p.role(roleName)
	return ok && role.ManageActors
}
