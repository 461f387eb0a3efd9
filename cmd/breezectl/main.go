package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
	"github.com/breezechat/breeze/pkg/rpc"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "breezectl",
	Short: "breezectl - poke a running BreezeChat deployment",
	Long: `breezectl talks to BreezeChat services the way a gateway does: it looks
instances up in etcd and picks one through the least-busy balancer. Useful
for smoke testing a deployment without a client build.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.ErrorLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = log.DebugLevel
		}
		log.Init(log.Config{Level: level})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"breezectl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("etcd-address", "127.0.0.1:2379", "Registry endpoints, comma separated")
	rootCmd.PersistentFlags().String("user-service-name", "user_service", "User service name in the registry")
	rootCmd.PersistentFlags().String("transmit-service-name", "transmit_service", "Transmit service name in the registry")
	rootCmd.PersistentFlags().String("message-service-name", "message_service", "Message storage service name in the registry")
	rootCmd.PersistentFlags().Bool("verbose", false, "Show fabric logs")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(demoCmd)
}

// dialService subscribes to the registry and returns a connection to one
// instance of service. The cleanup function releases the discovery watch and
// every pooled connection.
func dialService(cmd *cobra.Command, service string) (balancer.Conn, func(), error) {
	etcdAddr, _ := cmd.Flags().GetString("etcd-address")

	cli, err := coord.NewClient(coord.Config{Endpoints: strings.Split(etcdAddr, ",")})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reach etcd at %s: %v", etcdAddr, err)
	}
	mgr := balancer.NewManager(rpc.Connect)
	mgr.Declare(service)
	disc, err := coord.NewDiscovery(cli, service, mgr.Online, mgr.Offline)
	if err != nil {
		mgr.Close()
		cli.Close()
		return nil, nil, err
	}
	cleanup := func() {
		disc.Close()
		mgr.Close()
		cli.Close()
	}

	// The initial listing lands asynchronously; give it a moment.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if conn := mgr.Pick(service); conn != nil {
			return conn, cleanup, nil
		}
		if time.Now().After(deadline) {
			cleanup()
			return nil, nil, fmt.Errorf("no %s instance registered", service)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		nickname, _ := cmd.Flags().GetString("nickname")
		password, _ := cmd.Flags().GetString("password")
		userService, _ := cmd.Flags().GetString("user-service-name")

		conn, cleanup, err := dialService(cmd, userService)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := callCtx()
		defer cancel()
		rsp, err := rpc.NewUserClient(conn).UserRegister(ctx, &rpc.UserRegisterReq{
			RequestID: uuid.NewString(),
			Nickname:  nickname,
			Password:  password,
		})
		if err != nil {
			return fmt.Errorf("user service unreachable: %v", err)
		}
		if !rsp.Success {
			return fmt.Errorf("register failed: %s", rsp.Errmsg)
		}

		fmt.Printf("✓ Registered user %q\n", nickname)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print the session id",
	RunE: func(cmd *cobra.Command, args []string) error {
		nickname, _ := cmd.Flags().GetString("nickname")
		password, _ := cmd.Flags().GetString("password")
		userService, _ := cmd.Flags().GetString("user-service-name")

		conn, cleanup, err := dialService(cmd, userService)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := callCtx()
		defer cancel()
		rsp, err := rpc.NewUserClient(conn).UserLogin(ctx, &rpc.UserLoginReq{
			RequestID: uuid.NewString(),
			Nickname:  nickname,
			Password:  password,
		})
		if err != nil {
			return fmt.Errorf("user service unreachable: %v", err)
		}
		if !rsp.Success {
			return fmt.Errorf("login failed: %s", rsp.Errmsg)
		}

		fmt.Println("✓ Logged in")
		fmt.Printf("  Session ID: %s\n", rsp.LoginSessionID)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a text message into a chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user-id")
		session, _ := cmd.Flags().GetString("session")
		text, _ := cmd.Flags().GetString("text")
		transmitService, _ := cmd.Flags().GetString("transmit-service-name")

		conn, cleanup, err := dialService(cmd, transmitService)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := callCtx()
		defer cancel()
		rsp, err := rpc.NewTransmitClient(conn).GetTransmitTarget(ctx, &rpc.GetTransmitTargetReq{
			RequestID:     uuid.NewString(),
			UserID:        userID,
			ChatSessionID: session,
			Message: model.MessageContent{
				Type:          model.MessageString,
				StringMessage: &model.StringMessageInfo{Content: text},
			},
		})
		if err != nil {
			return fmt.Errorf("transmit service unreachable: %v", err)
		}
		if !rsp.Success {
			return fmt.Errorf("send failed: %s", rsp.Errmsg)
		}

		fmt.Println("✓ Message accepted")
		fmt.Printf("  Message ID: %s\n", rsp.Message.MessageID)
		fmt.Printf("  Targets: %d\n", len(rsp.TargetIDList))
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print the most recent messages of a chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		count, _ := cmd.Flags().GetInt64("count")
		messageService, _ := cmd.Flags().GetString("message-service-name")

		conn, cleanup, err := dialService(cmd, messageService)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := callCtx()
		defer cancel()
		rsp, err := rpc.NewMsgStorageClient(conn).GetRecentMsg(ctx, &rpc.GetRecentMsgReq{
			RequestID:     uuid.NewString(),
			ChatSessionID: session,
			MsgCount:      count,
		})
		if err != nil {
			return fmt.Errorf("message storage service unreachable: %v", err)
		}
		if !rsp.Success {
			return fmt.Errorf("recent failed: %s", rsp.Errmsg)
		}

		if len(rsp.MsgList) == 0 {
			fmt.Println("No messages.")
			return nil
		}
		for _, m := range rsp.MsgList {
			printMessage(m)
		}
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an end-to-end smoke test",
	Long: `Register an account, log in, send a text message and read it back
through the storage service. Exercises the registry, the balancer, the
transmit pipeline and the read path in one go.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nickname, _ := cmd.Flags().GetString("nickname")
		password, _ := cmd.Flags().GetString("password")
		session, _ := cmd.Flags().GetString("session")
		text, _ := cmd.Flags().GetString("text")
		userService, _ := cmd.Flags().GetString("user-service-name")
		transmitService, _ := cmd.Flags().GetString("transmit-service-name")
		messageService, _ := cmd.Flags().GetString("message-service-name")

		userConn, userCleanup, err := dialService(cmd, userService)
		if err != nil {
			return err
		}
		defer userCleanup()
		userCli := rpc.NewUserClient(userConn)

		ctx, cancel := callCtx()
		defer cancel()

		reg, err := userCli.UserRegister(ctx, &rpc.UserRegisterReq{
			RequestID: uuid.NewString(),
			Nickname:  nickname,
			Password:  password,
		})
		if err != nil {
			return fmt.Errorf("user service unreachable: %v", err)
		}
		if reg.Success {
			fmt.Printf("✓ Registered user %q\n", nickname)
		} else {
			// A rerun hits the nickname uniqueness check; keep going and
			// let the login decide whether the account is usable.
			fmt.Printf("  Register: %s\n", reg.Errmsg)
		}

		login, err := userCli.UserLogin(ctx, &rpc.UserLoginReq{
			RequestID: uuid.NewString(),
			Nickname:  nickname,
			Password:  password,
		})
		if err != nil {
			return fmt.Errorf("user service unreachable: %v", err)
		}
		if !login.Success {
			return fmt.Errorf("login failed: %s", login.Errmsg)
		}
		fmt.Printf("✓ Logged in, session %s\n", login.LoginSessionID)

		search, err := userCli.UserSearch(ctx, &rpc.UserSearchReq{
			RequestID: uuid.NewString(),
			SearchKey: nickname,
		})
		if err != nil {
			return fmt.Errorf("user service unreachable: %v", err)
		}
		var userID string
		for _, info := range search.UserInfo {
			if info.Nickname == nickname {
				userID = info.UserID
				break
			}
		}
		if userID == "" {
			return fmt.Errorf("account %q not searchable yet", nickname)
		}
		fmt.Printf("✓ Resolved user id %s\n", userID)

		transmitConn, transmitCleanup, err := dialService(cmd, transmitService)
		if err != nil {
			return err
		}
		defer transmitCleanup()

		sent, err := rpc.NewTransmitClient(transmitConn).GetTransmitTarget(ctx, &rpc.GetTransmitTargetReq{
			RequestID:     uuid.NewString(),
			UserID:        userID,
			ChatSessionID: session,
			Message: model.MessageContent{
				Type:          model.MessageString,
				StringMessage: &model.StringMessageInfo{Content: text},
			},
		})
		if err != nil {
			return fmt.Errorf("transmit service unreachable: %v", err)
		}
		if !sent.Success {
			return fmt.Errorf("send failed: %s", sent.Errmsg)
		}
		fmt.Printf("✓ Message %s accepted, %d targets\n", sent.Message.MessageID, len(sent.TargetIDList))

		// The envelope travels through the broker before it is readable.
		time.Sleep(time.Second)

		storageConn, storageCleanup, err := dialService(cmd, messageService)
		if err != nil {
			return err
		}
		defer storageCleanup()

		recent, err := rpc.NewMsgStorageClient(storageConn).GetRecentMsg(ctx, &rpc.GetRecentMsgReq{
			RequestID:     uuid.NewString(),
			ChatSessionID: session,
			MsgCount:      10,
		})
		if err != nil {
			return fmt.Errorf("message storage service unreachable: %v", err)
		}
		if !recent.Success {
			return fmt.Errorf("recent failed: %s", recent.Errmsg)
		}

		found := false
		for _, m := range recent.MsgList {
			printMessage(m)
			if m.MessageID == sent.Message.MessageID {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("message %s not yet visible in history", sent.Message.MessageID)
		}

		fmt.Println()
		fmt.Println("✓ Demo complete")
		return nil
	},
}

func init() {
	registerCmd.Flags().String("nickname", "", "Nickname to register")
	registerCmd.Flags().String("password", "", "Password")
	_ = registerCmd.MarkFlagRequired("nickname")
	_ = registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().String("nickname", "", "Nickname")
	loginCmd.Flags().String("password", "", "Password")
	_ = loginCmd.MarkFlagRequired("nickname")
	_ = loginCmd.MarkFlagRequired("password")

	sendCmd.Flags().String("user-id", "", "Sender user id")
	sendCmd.Flags().String("session", "", "Chat session id")
	sendCmd.Flags().String("text", "", "Message text")
	_ = sendCmd.MarkFlagRequired("user-id")
	_ = sendCmd.MarkFlagRequired("session")
	_ = sendCmd.MarkFlagRequired("text")

	recentCmd.Flags().String("session", "", "Chat session id")
	recentCmd.Flags().Int64("count", 10, "How many messages to fetch")
	_ = recentCmd.MarkFlagRequired("session")

	demoCmd.Flags().String("nickname", "breeze-demo", "Nickname to register and send as")
	demoCmd.Flags().String("password", "breeze-demo-pass", "Password")
	demoCmd.Flags().String("session", "demo-session", "Chat session id")
	demoCmd.Flags().String("text", "hello from breezectl", "Message text")
}

// printMessage renders one history entry.
func printMessage(m model.MessageInfo) {
	stamp := time.Unix(m.Timestamp, 0).Format("2006-01-02 15:04:05")
	fmt.Printf("[%s] %s: %s\n", stamp, m.Sender.Nickname, renderContent(m.Content))
}

// renderContent flattens a payload union into one display line.
func renderContent(c model.MessageContent) string {
	switch c.Type {
	case model.MessageString:
		if c.StringMessage != nil {
			return c.StringMessage.Content
		}
	case model.MessageImage:
		return "[image]"
	case model.MessageFile:
		if c.FileMessage != nil {
			return fmt.Sprintf("[file] %s (%d bytes)", c.FileMessage.FileName, c.FileMessage.FileSize)
		}
		return "[file]"
	case model.MessageSpeech:
		return "[speech]"
	}
	return ""
}
