package instance

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEC2Client implements EC2API for testing.
type mockEC2Client struct {
	DescribeInstancesFunc func(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	calls                 []*ec2.DescribeInstancesInput
}

func (m *mockEC2Client) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	m.calls = append(m.calls, params)
	if m.DescribeInstancesFunc != nil {
		return m.DescribeInstancesFunc(ctx, params, optFns...)
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

func newTestInstance(id string, tags ...types.Tag) types.Instance {
	return types.Instance{
		InstanceId:     aws.String(id),
		State:          &types.InstanceState{Name: types.InstanceStateNameRunning},
		Placement:      &types.Placement{AvailabilityZone: aws.String("us-east-2a")},
		PublicDnsName:  aws.String("ec2-3-14-15-92.us-east-2.compute.amazonaws.com"),
		PrivateDnsName: aws.String("ip-10-0-0-5.us-east-2.compute.internal"),
		Tags:           tags,
	}
}

func tag(k, v string) types.Tag {
	return types.Tag{Key: aws.String(k), Value: aws.String(v)}
}

func filterValue(in *ec2.DescribeInstancesInput, name string) []string {
	for _, f := range in.Filters {
		if aws.ToString(f.Name) == name {
			return f.Values
		}
	}
	return nil
}

func TestInstanceLabel(t *testing.T) {
	tests := []struct {
		name  string
		tags  []types.Tag
		label string
	}{
		{"no tags", nil, "i-0123456789abcdef0"},
		{"unrelated tags", []types.Tag{tag("env", "prod")}, "i-0123456789abcdef0"},
		{"one name tag", []types.Tag{tag("Name", "web0"), tag("env", "prod")}, "i-0123456789abcdef0 (web0)"},
		{"two name tags", []types.Tag{tag("Name", "web0"), tag("Name", "web1")}, "i-0123456789abcdef0"},
		{"lowercase key", []types.Tag{tag("name", "web0")}, "i-0123456789abcdef0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := fromEC2(newTestInstance("i-0123456789abcdef0", tt.tags...))
			assert.Equal(t, tt.label, i.Label)
		})
	}
}

func TestInstanceAddress(t *testing.T) {
	i := Instance{PublicDNSName: "", PrivateDNSName: "10.0.0.5"}
	assert.Equal(t, "10.0.0.5", i.Address())

	i = Instance{PublicDNSName: "ec2-1-2-3-4.compute.amazonaws.com", PrivateDNSName: "10.0.0.5"}
	assert.Equal(t, "ec2-1-2-3-4.compute.amazonaws.com", i.Address())
}

func TestResolve(t *testing.T) {
	mock := &mockEC2Client{
		DescribeInstancesFunc: func(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
			return &ec2.DescribeInstancesOutput{
				Reservations: []types.Reservation{{Instances: []types.Instance{newTestInstance("i-0123456789abcdef0", tag("Name", "web0"))}}},
			}, nil
		},
	}

	d := NewDirectoryWithClient(mock, nil)
	i, err := d.Resolve(context.Background(), "i-0123456789abcdef0")
	require.NoError(t, err)

	assert.Equal(t, "i-0123456789abcdef0", i.ID)
	assert.Equal(t, "running", i.State)
	assert.Equal(t, "us-east-2a", i.AvailabilityZone)
	assert.Equal(t, "ec2-3-14-15-92.us-east-2.compute.amazonaws.com", i.PublicDNSName)
	assert.Equal(t, "ip-10-0-0-5.us-east-2.compute.internal", i.PrivateDNSName)
	assert.Equal(t, "web0", i.Name)

	require.Len(t, mock.calls, 1)
	assert.Equal(t, []string{"i-0123456789abcdef0"}, mock.calls[0].InstanceIds)
	assert.Equal(t, []string{"running"}, filterValue(mock.calls[0], "instance-state-name"))
}

func TestResolve_Idempotent(t *testing.T) {
	mock := &mockEC2Client{
		DescribeInstancesFunc: func(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
			return &ec2.DescribeInstancesOutput{
				Reservations: []types.Reservation{{Instances: []types.Instance{newTestInstance("i-0123456789abcdef0")}}},
			}, nil
		},
	}

	d := NewDirectoryWithClient(mock, nil)
	a, err := d.Resolve(context.Background(), "i-0123456789abcdef0")
	require.NoError(t, err)
	b, err := d.Resolve(context.Background(), "i-0123456789abcdef0")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestResolve_NotFound(t *testing.T) {
	t.Run("empty result", func(t *testing.T) {
		d := NewDirectoryWithClient(&mockEC2Client{}, nil)
		_, err := d.Resolve(context.Background(), "i-0123456789abcdef0")

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "i-0123456789abcdef0", nf.ID)
		assert.ErrorIs(t, err, ErrNoInstanceFound)
	})

	t.Run("api not found code", func(t *testing.T) {
		mock := &mockEC2Client{
			DescribeInstancesFunc: func(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
				return nil, &smithy.GenericAPIError{Code: "InvalidInstanceID.NotFound", Message: "The instance ID 'i-0123456789abcdef0' does not exist"}
			},
		}

		_, err := NewDirectoryWithClient(mock, nil).Resolve(context.Background(), "i-0123456789abcdef0")
		assert.ErrorIs(t, err, ErrNoInstanceFound)
	})
}

func TestResolve_ProviderError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "UnauthorizedOperation", Message: "You are not authorized to perform this operation."}
	mock := &mockEC2Client{
		DescribeInstancesFunc: func(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
			return nil, apiErr
		},
	}

	_, err := NewDirectoryWithClient(mock, nil).Resolve(context.Background(), "i-0123456789abcdef0")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "UnauthorizedOperation")
	assert.NotErrorIs(t, err, ErrNoInstanceFound)
}

func TestPages(t *testing.T) {
	pages := map[string]*ec2.DescribeInstancesOutput{
		"": {
			Reservations: []types.Reservation{
				{Instances: []types.Instance{newTestInstance("i-00000001", tag("Name", "a")), newTestInstance("i-00000002")}},
				{Instances: []types.Instance{newTestInstance("i-00000003")}},
			},
			NextToken: aws.String("page2"),
		},
		"page2": {
			Reservations: []types.Reservation{{Instances: []types.Instance{newTestInstance("i-00000004")}}},
		},
	}

	mock := &mockEC2Client{
		DescribeInstancesFunc: func(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
			return pages[aws.ToString(in.NextToken)], nil
		},
	}

	p := NewDirectoryWithClient(mock, nil).Pages(8)
	require.True(t, p.HasMorePages())

	first, err := p.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "i-00000001 (a)", first[0].Label)
	assert.Equal(t, "i-00000003", first[2].ID)
	assert.True(t, p.HasMorePages())

	second, err := p.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.False(t, p.HasMorePages())

	require.Len(t, mock.calls, 2)
	assert.Equal(t, int32(8), aws.ToInt32(mock.calls[0].MaxResults))
	assert.Equal(t, []string{"running"}, filterValue(mock.calls[0], "instance-state-name"))
	assert.Empty(t, mock.calls[0].InstanceIds)
}

func TestPages_Lazy(t *testing.T) {
	mock := &mockEC2Client{}
	p := NewDirectoryWithClient(mock, nil).Pages(7)

	assert.True(t, p.HasMorePages())
	assert.Empty(t, mock.calls)
}

func TestPages_Error(t *testing.T) {
	mock := &mockEC2Client{
		DescribeInstancesFunc: func(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
			return nil, errors.New("connection reset by peer")
		},
	}

	_, err := NewDirectoryWithClient(mock, nil).Pages(8).NextPage(context.Background())

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "describe instances: connection reset by peer", err.Error())
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, MinPageSize, clampPageSize(1))
	assert.Equal(t, 8, clampPageSize(8))
	assert.Equal(t, MaxPageSize, clampPageSize(5000))
}
