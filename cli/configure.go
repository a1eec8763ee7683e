package cli

import (
	"fmt"
	"strconv"

	"github.com/mmmorris1975/aws-ec2/awsclient"
	"github.com/mmmorris1975/aws-ec2/config"
	"github.com/mmmorris1975/aws-ec2/keys"
	"github.com/mmmorris1975/aws-ec2/prompt"
	"github.com/mmmorris1975/aws-ec2/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConfigureCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Set the bastion host, users and key of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}
}

func (a *app) configure(cmd *cobra.Command) error {
	ctx := cmd.Context()

	svc, err := a.services(ctx, a.awsOptions(), a.log)
	if err != nil {
		return err
	}

	// the banner is informational, a failure to identify the caller will surface again on the next call
	if id, err := awsclient.CallerIdentity(ctx, svc.sts); err != nil {
		a.log.Warn("unable to identify AWS account", zap.Error(err))
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuring profile %q for AWS account %s (%s)\n", a.store.Name(), id.Account, id.ARN)
	}

	pages := svc.directory.Pages(prompt.PageSize(true))
	bastion, err := prompt.SelectInstance(ctx, pages, a.chooser, "Choose bastion host", true)
	if err != nil {
		return err
	}

	current := a.store.Profile()
	answers := prompt.ProfileAnswers{
		BastionUser:  current.BastionUser,
		BastionPort:  strconv.Itoa(session.DefaultPort),
		InstanceUser: current.InstanceUser,
		Key:          current.Key,
	}
	if current.BastionPort > 0 {
		answers.BastionPort = strconv.Itoa(current.BastionPort)
	}

	if err = a.form.AskProfile(ctx, &answers, keys.ValidatePath); err != nil {
		return err
	}

	// the form validates the port, an empty value means the default
	port, _ := strconv.Atoi(answers.BastionPort)

	err = a.store.Update(func(p *config.Profile) {
		p.Bastion = bastion
		p.BastionUser = answers.BastionUser
		p.BastionPort = port
		p.InstanceUser = answers.InstanceUser
		p.Key = answers.Key
	})
	if err != nil {
		return err
	}

	a.log.Debug("profile saved", zap.String("profile", a.store.Name()), zap.String("path", a.store.Path()))
	return nil
}
