package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/ec2instanceconnect"
	"go.uber.org/zap"
)

// InstanceConnectAPI is the subset of the EC2 Instance Connect client used to push keys.
type InstanceConnectAPI interface {
	SendSSHPublicKey(ctx context.Context, params *ec2instanceconnect.SendSSHPublicKeyInput, optFns ...func(*ec2instanceconnect.Options)) (*ec2instanceconnect.SendSSHPublicKeyOutput, error)
}

// Target identifies the OS account on an instance which will accept the public key.
type Target struct {
	InstanceID       string
	OSUser           string
	AvailabilityZone string
}

// ProvisionError is returned when EC2 Instance Connect did not accept the public key.
type ProvisionError struct {
	InstanceID string
	RequestID  string
	Err        error
}

func (e *ProvisionError) Error() string {
	msg := "unable to add SSH key to " + e.InstanceID
	if e.RequestID != "" {
		msg += " (request " + e.RequestID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Provisioner pushes a public key to an instance for one-time SSH authentication.
type Provisioner struct {
	client InstanceConnectAPI
	log    *zap.Logger
}

// NewProvisioner creates a Provisioner using the EC2 Instance Connect client built from cfg.  The client
// makes a single attempt per call, failures are never retried.
func NewProvisioner(cfg aws.Config, log *zap.Logger) *Provisioner {
	c := ec2instanceconnect.NewFromConfig(cfg, func(o *ec2instanceconnect.Options) {
		o.RetryMaxAttempts = 1
	})
	return NewProvisionerWithClient(c, log)
}

// NewProvisionerWithClient creates a Provisioner backed by the provided InstanceConnectAPI.
func NewProvisionerWithClient(client InstanceConnectAPI, log *zap.Logger) *Provisioner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provisioner{client: client, log: log}
}

// Provision sends publicKey to the instance and OS user in t.  The key is only valid for a short time
// (60 seconds at the time of writing), so it must be provisioned right before it is used.
func (p *Provisioner) Provision(ctx context.Context, t Target, publicKey string) error {
	p.log.Debug("loading public key", zap.Stringer("target", t))

	in := &ec2instanceconnect.SendSSHPublicKeyInput{
		InstanceId:     aws.String(t.InstanceID),
		InstanceOSUser: aws.String(t.OSUser),
		SSHPublicKey:   aws.String(publicKey),
	}
	if t.AvailabilityZone != "" {
		in.AvailabilityZone = aws.String(t.AvailabilityZone)
	}

	o, err := p.client.SendSSHPublicKey(ctx, in)
	if err != nil {
		return &ProvisionError{InstanceID: t.InstanceID, RequestID: requestID(err), Err: err}
	}

	if !o.Success {
		return &ProvisionError{InstanceID: t.InstanceID, RequestID: aws.ToString(o.RequestId)}
	}
	return nil
}

func requestID(err error) string {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.ServiceRequestID()
	}
	return ""
}

// String is used when logging a Target
func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.OSUser, t.InstanceID)
}
