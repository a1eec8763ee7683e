package instance

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"
)

const (
	// MinPageSize and MaxPageSize bound the MaxResults value accepted by DescribeInstances
	MinPageSize = 5
	MaxPageSize = 1000
)

// EC2API is the subset of the EC2 client used to look up instances.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Directory queries EC2 for running instances.
type Directory struct {
	client EC2API
	log    *zap.Logger
}

// NewDirectory creates a Directory using the EC2 client built from cfg.
func NewDirectory(cfg aws.Config, log *zap.Logger) *Directory {
	return NewDirectoryWithClient(ec2.NewFromConfig(cfg), log)
}

// NewDirectoryWithClient creates a Directory backed by the provided EC2API.
func NewDirectoryWithClient(client EC2API, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{client: client, log: log}
}

func runningFilter() types.Filter {
	return types.Filter{Name: aws.String("instance-state-name"), Values: []string{string(types.InstanceStateNameRunning)}}
}

// Resolve returns the running instance with the given ID.  A *NotFoundError is returned if there is no
// such instance, any other failure is returned as a *ProviderError.
func (d *Directory) Resolve(ctx context.Context, id string) (*Instance, error) {
	d.log.Debug("looking up instance", zap.String("instance", id))

	o, err := d.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters:     []types.Filter{runningFilter()},
		InstanceIds: []string{id},
	})
	if err != nil {
		if isNotFoundCode(err) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &ProviderError{Op: "describe instance " + id, Err: err}
	}

	for _, res := range o.Reservations {
		if len(res.Instances) > 0 {
			i := fromEC2(res.Instances[0])
			return &i, nil
		}
	}

	return nil, &NotFoundError{ID: id}
}

// Pages returns a lazy sequence of pages of running instances, each holding about pageSize instances.  No
// API call is made until the first call to NextPage.  The ordering is determined by EC2, and is not
// guaranteed to be stable between calls.
func (d *Directory) Pages(pageSize int) *Pager {
	in := &ec2.DescribeInstancesInput{Filters: []types.Filter{runningFilter()}}

	p := ec2.NewDescribeInstancesPaginator(d.client, in, func(o *ec2.DescribeInstancesPaginatorOptions) {
		o.Limit = int32(clampPageSize(pageSize))
	})

	return &Pager{p: p, log: d.log}
}

func clampPageSize(n int) int {
	if n < MinPageSize {
		return MinPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Pager walks through the pages of running instances.  Callers may stop at any point.
type Pager struct {
	p    *ec2.DescribeInstancesPaginator
	log  *zap.Logger
	page int
}

// HasMorePages reports whether NextPage can be called again.
func (p *Pager) HasMorePages() bool {
	return p.p.HasMorePages()
}

// NextPage fetches the next page of running instances.  EC2 counts instances, not reservations, against
// the page size, and all instances of each reservation in the page are returned.
func (p *Pager) NextPage(ctx context.Context) ([]Instance, error) {
	p.page++
	p.log.Debug("fetching instance page", zap.Int("page", p.page))

	o, err := p.p.NextPage(ctx)
	if err != nil {
		return nil, &ProviderError{Op: "describe instances", Err: err}
	}

	instances := make([]Instance, 0)
	for _, res := range o.Reservations {
		for _, i := range res.Instances {
			instances = append(instances, fromEC2(i))
		}
	}
	return instances, nil
}
