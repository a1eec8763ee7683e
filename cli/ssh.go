package cli

import (
	"github.com/mmmorris1975/aws-ec2/handoff"
	"github.com/mmmorris1975/aws-ec2/keys"
	"github.com/mmmorris1975/aws-ec2/prompt"
	"github.com/mmmorris1975/aws-ec2/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	flagSSHUser    = "ssh.user"
	flagSSHPort    = "ssh.port"
	flagSSHKey     = "ssh.key"
	flagSSHCommand = "ssh.command"
)

func newSSHCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh [instance]",
		Short: "Open an SSH session to an instance",
		Long: `Open an SSH session to a running instance, selected interactively if not given.

The instance may be an instance ID, a tag_key:tag_value pair (ex. Name:web0), a private IPv4
address, or a DNS name with a TXT record holding the instance ID.  The public key matching the
private key is pushed to the instance (and to the bastion host, if one is configured) with EC2
Instance Connect right before the ssh client is started.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ssh(cmd, args)
		},
	}

	f := cmd.Flags()
	f.StringP("user", "u", "", "Instance SSH User")
	f.IntP("port", "p", 0, "Instance SSH Port (default 22)")
	f.StringP("key", "k", "", "Private SSH Key")
	f.StringP("command", "c", "", "Command to run on instance (instead of terminal session)")

	_ = a.v.BindPFlag(flagSSHUser, f.Lookup("user"))
	_ = a.v.BindPFlag(flagSSHPort, f.Lookup("port"))
	_ = a.v.BindPFlag(flagSSHKey, f.Lookup("key"))
	_ = a.v.BindPFlag(flagSSHCommand, f.Lookup("command"))

	return cmd
}

func (a *app) ssh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	profile := a.store.Profile()

	// everything which can be checked locally is checked before calling AWS
	sshPath, err := a.lookPath(handoff.DefaultClient)
	if err != nil {
		return err
	}

	keyPath := a.v.GetString(flagSSHKey)
	if keyPath == "" {
		keyPath = profile.Key
	}
	if keyPath == "" {
		return &session.MissingConfigurationError{Setting: "key"}
	}

	key, err := keys.LoadPair(keyPath)
	if err != nil {
		return err
	}
	a.log.Debug("using key pair", zap.String("key", key.PrivateKeyPath))

	req := session.Request{
		Key:         key,
		DefaultUser: profile.InstanceUser,
		User:        a.v.GetString(flagSSHUser),
		Port:        a.v.GetInt(flagSSHPort),
		Bastion:     profile.Bastion,
		BastionUser: profile.BastionUser,
		BastionPort: profile.BastionPort,
		Command:     a.v.GetString(flagSSHCommand),
	}
	if req.User == "" && req.DefaultUser == "" {
		return &session.MissingConfigurationError{Setting: "instance user"}
	}

	svc, err := a.services(ctx, a.awsOptions(), a.log)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		req.Target, err = svc.directory.ResolveTarget(ctx, args[0])
	} else {
		pages := svc.directory.Pages(prompt.PageSize(false))
		req.Target, err = prompt.SelectInstance(ctx, pages, a.chooser, "Choose an instance", false)
	}
	if err != nil {
		return err
	}

	plan, err := session.NewPlanner(svc.directory, svc.provisioner, a.log).Plan(ctx, req)
	if err != nil {
		return err
	}

	a.log.Debug("starting ssh", zap.String("path", sshPath), zap.String("destination", plan.User+"@"+plan.Host))
	return a.exec(sshPath, plan.Args)
}
