package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/hwuu/mylzip/internal/config"
	"github.com/hwuu/mylzip/internal/deploy"
	"github.com/hwuu/mylzip/internal/remote"
	"github.com/hwuu/mylzip/internal/upload"
)

// 构建时通过 ldflags 注入
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions 所有连接类子命令共享的参数
type globalOptions struct {
	credentialsFile string
	stateDir        string
	timeout         time.Duration
	insecure        bool
	verbose         bool
	rateLimit       int64
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "mylzip",
		Short:         "Deploy myl.zip site assets over FTP",
		Long:          "mylzip uploads the myl.zip front-end to its hosting account over FTP, FTPS or SFTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.credentialsFile, "credentials", "", "credentials file (default ~/.mylzip/credentials)")
	flags.StringVar(&opts.stateDir, "state-dir", "", "directory holding state.json (default ~/.mylzip)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "dial timeout, 0 means no timeout")
	flags.BoolVar(&opts.insecure, "insecure", false, "skip TLS certificate and SSH host key verification")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print the FTP protocol exchange to stderr")
	flags.Int64Var(&opts.rateLimit, "limit-rate", 0, "upload bandwidth limit in bytes/s, 0 means unlimited")

	rootCmd.AddCommand(newUploadJSCmd(opts))
	rootCmd.AddCommand(newDeployCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newTestConnectionCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newUploadJSCmd(opts *globalOptions) *cobra.Command {
	var localDir, remoteDir string

	cmd := &cobra.Command{
		Use:   "upload-js",
		Short: "Upload cross-platform-chat.js, setup-wizard.js and main.js to js/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, dial, err := opts.dialer(cmd)
			if err != nil {
				return err
			}

			u := &upload.Uploader{
				Dial:      dial,
				Output:    cmd.OutOrStdout(),
				LocalDir:  localDir,
				RemoteDir: remoteDir,
				RateLimit: opts.rateLimit,
			}
			report, err := u.Run(cmd.Context())
			if err != nil {
				return err
			}

			state := config.NewState("upload-js", cred, remoteDir)
			for _, f := range report.Uploaded {
				state.Uploaded = append(state.Uploaded, config.UploadedFile{RemotePath: f.RemotePath, Size: f.Size})
			}
			state.Skipped = report.Skipped
			return opts.saveState(state)
		},
	}

	cmd.Flags().StringVar(&localDir, "local-dir", upload.DefaultLocalDir, "local directory holding the JS files")
	cmd.Flags().StringVar(&remoteDir, "remote-dir", upload.DefaultRemoteDir, "remote directory to store into")
	return cmd
}

func newDeployCmd(opts *globalOptions) *cobra.Command {
	var localDir, remoteDir string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload a whole local site directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, dial, err := opts.dialer(cmd)
			if err != nil {
				return err
			}

			d := &deploy.Deployer{
				Dial:      dial,
				Output:    cmd.OutOrStdout(),
				LocalDir:  localDir,
				RemoteDir: remoteDir,
				RateLimit: opts.rateLimit,
			}
			result, err := d.Run(cmd.Context())
			if err != nil {
				return err
			}

			state := config.NewState("deploy", cred, remoteDir)
			state.Uploaded = result.Uploaded
			if err := opts.saveState(state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n[SUCCESS] Deployment completed successfully!\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&localDir, "local-dir", deploy.DefaultDeployLocalDir, "local site directory")
	cmd.Flags().StringVar(&remoteDir, "remote-dir", "", "remote target directory (required)")
	_ = cmd.MarkFlagRequired("remote-dir")
	return cmd
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [remote-dir...]",
		Short: "List remote directories and look for index.html",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dial, err := opts.dialer(cmd)
			if err != nil {
				return err
			}
			c := &deploy.DirectoryChecker{
				Dial:   dial,
				Output: cmd.OutOrStdout(),
				Dirs:   args,
			}
			_, err = c.Run(cmd.Context())
			return err
		},
	}
}

func newTestConnectionCmd(opts *globalOptions) *cobra.Command {
	var remoteDir string

	cmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Verify the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, dial, err := opts.dialer(cmd)
			if err != nil {
				return err
			}
			t := &deploy.ConnectionTester{
				Dial:        dial,
				Output:      cmd.OutOrStdout(),
				Credentials: cred,
				RemoteDir:   remoteDir,
			}
			return t.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&remoteDir, "remote-dir", "", "also make sure this remote directory exists")
	return cmd
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if forget {
				dir, err := opts.resolveStateDir()
				if err != nil {
					return err
				}
				return config.DeleteStateFrom(dir)
			}
			s := &deploy.StatusRunner{
				Output:   cmd.OutOrStdout(),
				StateDir: opts.stateDir,
			}
			return s.Run()
		},
	}

	cmd.Flags().BoolVar(&forget, "clear", false, "forget the recorded deployment")
	return cmd
}

func newInitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Save FTP credentials to ~/.mylzip/credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveCredentialsFile()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := config.NewPrompter(cmd.InOrStdin(), out)

			defaults := config.DefaultCredentials()
			if _, err := os.Stat(path); err == nil {
				ok, err := p.PromptConfirm(fmt.Sprintf("Credentials already exist at %s. Overwrite?", path), false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(out, "[OK] Existing credentials kept\n")
					return nil
				}
				if existing, err := config.LoadCredentialsFrom(path); err == nil {
					defaults = existing
				}
			}

			cred, err := p.PromptCredentials(defaults)
			if err != nil {
				return err
			}
			if opts.credentialsFile == "" {
				err = config.SaveCredentials(cred)
			} else {
				err = config.SaveCredentialsTo(path, cred)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "[OK] Credentials saved to %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mylzip %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		},
	}
}

func (o *globalOptions) resolveCredentialsFile() (string, error) {
	if o.credentialsFile != "" {
		return o.credentialsFile, nil
	}
	dir, err := config.GetStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.CredentialsFileName), nil
}

func (o *globalOptions) resolveStateDir() (string, error) {
	if o.stateDir != "" {
		return o.stateDir, nil
	}
	return config.GetStateDir()
}

// dialer 解析凭证并构造 DialFunc
func (o *globalOptions) dialer(cmd *cobra.Command) (*config.Credentials, remote.DialFunc, error) {
	var cred *config.Credentials
	var err error
	if o.credentialsFile == "" {
		cred, err = config.LoadCredentials()
	} else {
		cred, err = config.ResolveCredentials(o.credentialsFile, os.LookupEnv)
	}
	if err != nil {
		return nil, nil, err
	}

	dialOpts := remote.DialOptions{
		Protocol:           cred.Protocol,
		Secure:             cred.Secure,
		Host:               cred.Host,
		Port:               cred.Port,
		Username:           cred.Username,
		Password:           cred.Password,
		Timeout:            o.timeout,
		InsecureSkipVerify: o.insecure,
	}
	if o.verbose {
		dialOpts.DebugOutput = cmd.ErrOrStderr()
	}
	if !o.insecure {
		if home, err := os.UserHomeDir(); err == nil {
			knownHosts := filepath.Join(home, ".ssh", "known_hosts")
			if _, err := os.Stat(knownHosts); err == nil {
				dialOpts.KnownHostsFile = knownHosts
			}
		}
	}

	dial, err := remote.NewDialFunc(dialOpts)
	if err != nil {
		return nil, nil, err
	}
	return cred, dial, nil
}

func (o *globalOptions) saveState(state *config.State) error {
	if o.stateDir == "" {
		return config.SaveState(state)
	}
	return config.SaveStateTo(o.stateDir, state)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		stop()
		os.Exit(1)
	}
}
