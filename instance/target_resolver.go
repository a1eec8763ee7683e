package instance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"
)

var (
	instanceIDPattern = regexp.MustCompile(`^i-[[:alnum:]]+$`)
	ipv4Pattern       = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// TargetResolver is the interface specification for something which knows how to resolve an EC2 instance identifier
type TargetResolver interface {
	Resolve(context.Context, string) (string, error)
}

// IsInstanceID reports whether target is already in the format of an EC2 instance ID.
func IsInstanceID(target string) bool {
	return instanceIDPattern.MatchString(target)
}

// ResolveTarget attempts to find the instance ID of the target using the pre-defined resolution order:
// instance ID, tag_key:tag_value, private IPv4 address, then DNS TXT record.
func (d *Directory) ResolveTarget(ctx context.Context, target string) (string, error) {
	ec2r := &ec2Resolver{client: d.client, log: d.log}
	return ResolveTargetChain(ctx, target, &tagResolver{ec2r}, &ipResolver{ec2r}, NewDNSResolver())
}

// ResolveTargetChain attempts to find the instance ID of the target using the provided list of TargetResolvers.
// The first check will always be to see if the target is already in the format of an EC2 instance ID before
// moving on to the resolution logic of the provided TargetResolvers.  If a resolver can't match the target, the
// next resolver in the chain is checked.  A ProviderError stops the chain and is returned as is.  If all resolvers
// fail to find an instance ID an error is returned.
func ResolveTargetChain(ctx context.Context, target string, resolvers ...TargetResolver) (string, error) {
	target = strings.TrimSpace(target)
	if IsInstanceID(target) {
		return target, nil
	}

	for _, res := range resolvers {
		i, err := res.Resolve(ctx, target)
		if err != nil {
			var pe *ProviderError
			if errors.As(err, &pe) {
				return "", err
			}
			continue
		}
		return i, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoInstanceFound, target)
}

// NewDNSResolver is a TargetResolver which knows how to find an EC2 instance using DNS TXT record lookups
func NewDNSResolver() *dnsResolver {
	return &dnsResolver{lookupTXT: net.DefaultResolver.LookupTXT}
}

/*
 * DNS Resolver attempts to find an instance using a DNS TXT record lookup.  The DNS record is expected
 * to resolve to the EC2 instance ID associated with the DNS name.  If the DNS record is not found, or if
 * there is nothing which looks like an EC2 instance ID in the record data, an error is returned.
 */
type dnsResolver struct {
	lookupTXT func(ctx context.Context, name string) ([]string, error)
}

func (r *dnsResolver) Resolve(ctx context.Context, target string) (string, error) {
	rr, err := r.lookupTXT(ctx, target)
	if err != nil {
		return "", err
	}

	for _, rec := range rr {
		if IsInstanceID(rec) {
			return rec, nil
		}
	}

	return "", ErrNoInstanceFound
}

/*
 *  Tag Resolver attempts to find an instance using instance tags.  The expected format is tag_key:tag_value
 *  (ex. Name:web0).  At most, 1 instance ID is returned, if more than 1 match is found, only the 1st
 *  element of the instances list is returned.  The nature of the AWS EC2 API will not guarantee ordering of
 *  the instances list.
 */
type tagResolver struct {
	*ec2Resolver
}

func (r *tagResolver) Resolve(ctx context.Context, target string) (string, error) {
	kv := strings.SplitN(target, `:`, 2)
	if len(kv) < 2 || kv[0] == "" {
		return "", ErrInvalidTargetFormat
	}

	f := types.Filter{Name: aws.String(`tag:` + kv[0]), Values: []string{kv[1]}}
	return r.ec2Resolver.Resolve(ctx, f)
}

/*
 *  IP Resolver attempts to find an instance by its private IPv4 address using the EC2 API.
 *  If the data to resolve doesn't look like an IPv4 address, or no instance is found, an error is returned.
 */
type ipResolver struct {
	*ec2Resolver
}

func (r *ipResolver) Resolve(ctx context.Context, target string) (string, error) {
	if !ipv4Pattern.MatchString(target) {
		return "", ErrInvalidTargetFormat
	}

	f := types.Filter{Name: aws.String(`private-ip-address`), Values: []string{target}}
	return r.ec2Resolver.Resolve(ctx, f)
}

/*
 *  EC2 Resolver calls the EC2 DescribeInstances API with a provided filter, limited to running instances,
 *  which will return at most 1 instance ID. If more than 1 instance matches the filter, the 1st instance ID
 *  in the list is returned.
 */
type ec2Resolver struct {
	client EC2API
	log    *zap.Logger
}

func (r *ec2Resolver) Resolve(ctx context.Context, filter types.Filter) (string, error) {
	o, err := r.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{filter, runningFilter()},
	})
	if err != nil {
		return "", &ProviderError{Op: "describe instances", Err: err}
	}

	for _, res := range o.Reservations {
		if len(res.Instances) > 0 {
			if len(res.Instances) > 1 {
				r.log.Warn("more than 1 instance found, using 1st value", zap.String("filter", aws.ToString(filter.Name)))
			}

			return aws.ToString(res.Instances[0].InstanceId), nil
		}
	}

	return "", ErrNoInstanceFound
}
