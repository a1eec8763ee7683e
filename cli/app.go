package cli

import (
	"context"

	"github.com/mmmorris1975/aws-ec2/awsclient"
	"github.com/mmmorris1975/aws-ec2/config"
	"github.com/mmmorris1975/aws-ec2/handoff"
	"github.com/mmmorris1975/aws-ec2/instance"
	"github.com/mmmorris1975/aws-ec2/keys"
	"github.com/mmmorris1975/aws-ec2/prompt"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// services are the AWS backed components, created once the AWS configuration is known.
type services struct {
	directory   *instance.Directory
	provisioner *keys.Provisioner
	sts         awsclient.STSAPI
}

type profileForm interface {
	AskProfile(ctx context.Context, a *prompt.ProfileAnswers, validateKey func(string) error) error
}

// app holds the state shared by the commands of a single invocation.
type app struct {
	v     *viper.Viper
	log   *zap.Logger
	store *config.Store

	chooser  prompt.Chooser
	form     profileForm
	lookPath func(string) (string, error)
	exec     func(string, []string) error
	services func(ctx context.Context, opts awsclient.Options, log *zap.Logger) (*services, error)
}

func newApp() *app {
	t := prompt.NewTerminal()

	return &app{
		v:        viper.New(),
		log:      zap.NewNop(),
		chooser:  t,
		form:     t,
		lookPath: handoff.LookPath,
		exec:     handoff.Exec,
		services: newServices,
	}
}

func newServices(ctx context.Context, opts awsclient.Options, log *zap.Logger) (*services, error) {
	cfg, err := awsclient.LoadConfig(ctx, opts, log)
	if err != nil {
		return nil, err
	}

	return &services{
		directory:   instance.NewDirectory(cfg, log),
		provisioner: keys.NewProvisioner(cfg, log),
		sts:         awsclient.NewSTS(cfg),
	}, nil
}

func (a *app) awsOptions() awsclient.Options {
	return awsclient.Options{
		Profile: a.v.GetString(flagAWSProfile),
		Region:  a.v.GetString(flagRegion),
		Debug:   a.v.GetBool(flagDebug),
	}
}
