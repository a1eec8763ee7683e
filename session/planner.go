// Package session builds the argument list for the ssh client, provisioning the session's public key on the
// bastion host and target instance along the way.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmmorris1975/aws-ec2/instance"
	"github.com/mmmorris1975/aws-ec2/keys"
	"go.uber.org/zap"
)

// DefaultPort is the ssh port used when no other port is configured
const DefaultPort = 22

// InstanceResolver looks up a running instance by ID.
type InstanceResolver interface {
	Resolve(ctx context.Context, id string) (*instance.Instance, error)
}

// KeyProvisioner pushes a public key to an instance.
type KeyProvisioner interface {
	Provision(ctx context.Context, t keys.Target, publicKey string) error
}

// MissingConfigurationError is returned when a required setting has no configured value, and no override.
type MissingConfigurationError struct {
	Setting string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("no %s is configured, run 'aws-ec2 configure' or use the command line option", e.Setting)
}

// Request holds the resolved settings for a single ssh session.
type Request struct {
	Target string
	Key    *keys.Pair

	// DefaultUser is the profile's instance user, User overrides it when set
	DefaultUser string
	User        string
	// Port overrides DefaultPort when > 0
	Port int

	Bastion     string
	BastionUser string
	// BastionPort defaults to DefaultPort when not > 0
	BastionPort int

	// Command is run on the instance instead of a login shell, if set
	Command string
}

// Plan is the result of planning a session.  Args does not include the program name.
type Plan struct {
	Args        []string
	User        string
	Host        string
	Bastion     *instance.Instance
	Destination *instance.Instance
}

// Planner plans ssh sessions.
type Planner struct {
	instances InstanceResolver
	keys      KeyProvisioner
	log       *zap.Logger
}

// NewPlanner creates a Planner which looks up instances with r, and provisions keys with p.
func NewPlanner(r InstanceResolver, p KeyProvisioner, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{instances: r, keys: p, log: log}
}

// Plan resolves the instances taking part in the session, provisions the public key on each of them (bastion
// first), and returns the ssh arguments.  Nothing is returned unless every step succeeds.
func (p *Planner) Plan(ctx context.Context, r Request) (*Plan, error) {
	user := r.User
	if user == "" {
		user = r.DefaultUser
	}
	if user == "" {
		return nil, &MissingConfigurationError{Setting: "instance user"}
	}

	if r.Key == nil || r.Key.PrivateKeyPath == "" {
		return nil, &MissingConfigurationError{Setting: "key"}
	}

	port := r.Port
	if port <= 0 {
		port = DefaultPort
	}

	plan := &Plan{User: user}
	args := []string{"-t", "-i", r.Key.PrivateKeyPath, "-p", strconv.Itoa(port)}

	if UseBastion(r.Target, r.Bastion, r.BastionUser) {
		b, err := p.provision(ctx, r.Bastion, r.BastionUser, r.Key)
		if err != nil {
			return nil, err
		}
		plan.Bastion = b

		args = append(args, "-o", ProxyCommand(b.Address(), r.BastionUser, r.BastionPort, r.Key.PrivateKeyPath))
	}

	i, err := p.provision(ctx, r.Target, user, r.Key)
	if err != nil {
		return nil, err
	}
	plan.Destination = i
	plan.Host = i.Address()

	args = append(args, user+"@"+plan.Host)
	if r.Command != "" {
		args = append(args, r.Command)
	}

	plan.Args = args
	p.log.Debug("ssh arguments", zap.Strings("args", args))
	return plan, nil
}

func (p *Planner) provision(ctx context.Context, id, user string, key *keys.Pair) (*instance.Instance, error) {
	i, err := p.instances.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	t := keys.Target{InstanceID: i.ID, OSUser: user, AvailabilityZone: i.AvailabilityZone}
	if err = p.keys.Provision(ctx, t, key.PublicKey); err != nil {
		return nil, err
	}
	return i, nil
}

// UseBastion reports whether a session to target must be relayed through the bastion.  A bastion is never
// used to reach itself.
func UseBastion(target, bastion, bastionUser string) bool {
	return bastion != "" && bastionUser != "" && target != bastion
}

// ProxyCommand returns the ssh_config ProxyCommand option which relays the session through the bastion at
// host, authenticating with the same private key as the target instance.
func ProxyCommand(host, user string, port int, key string) string {
	if port <= 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("ProxyCommand ssh -W %%h:%%p -p %d -i %s %s@%s", port, shellQuote(key), user, host)
}

// ProxyCommand is run by a shell, so the key path is quoted if it contains anything beyond the common safe
// characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		}
		switch r {
		case '-', '_', '.', '/', '@', ':', ',', '+', '=':
			return false
		}
		return true
	}) == -1 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
