// Package instance looks up running EC2 instances, either by identifier or as a paged listing
// suitable for interactive selection.
package instance

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const nameTag = "Name"

// Instance is a read-only snapshot of the EC2 instance data needed to open an SSH session.
type Instance struct {
	ID               string
	State            string
	AvailabilityZone string
	PublicDNSName    string
	PrivateDNSName   string
	// Name is only set when the instance carries exactly one Name tag
	Name string
	// Label is the text shown when choosing between instances
	Label string
}

// Address returns the host name used to reach the instance.  The public DNS name is preferred, instances
// without one are assumed to be reachable on their private DNS name (through a bastion, or from inside the VPC).
func (i *Instance) Address() string {
	if i.PublicDNSName != "" {
		return i.PublicDNSName
	}
	return i.PrivateDNSName
}

func fromEC2(in types.Instance) Instance {
	i := Instance{
		ID:             aws.ToString(in.InstanceId),
		PublicDNSName:  strings.TrimSpace(aws.ToString(in.PublicDnsName)),
		PrivateDNSName: strings.TrimSpace(aws.ToString(in.PrivateDnsName)),
	}

	var named bool
	i.Name, named = name(in.Tags)

	if in.State != nil {
		i.State = string(in.State.Name)
	}

	if in.Placement != nil {
		i.AvailabilityZone = strings.TrimSpace(aws.ToString(in.Placement.AvailabilityZone))
	}

	i.Label = i.ID
	if named {
		i.Label = i.ID + " (" + i.Name + ")"
	}
	return i
}

// more than 1 Name tag is ambiguous, so the instance is treated as unnamed
func name(tags []types.Tag) (string, bool) {
	var names []string
	for _, t := range tags {
		if aws.ToString(t.Key) == nameTag {
			names = append(names, aws.ToString(t.Value))
		}
	}

	if len(names) != 1 {
		return "", false
	}
	return names[0], true
}
