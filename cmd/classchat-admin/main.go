package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/classchat/classchat/auth"
	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/globals"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// A very simple CLI tool for the administration of classchat rooms and users.

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
)

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func main() {
	log.SetFlags(0)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Fatal("interrupted!")
	}()

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)

	pflag.Parse()

	cfg, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}

	globals.AppLogger.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	st, err := store.NewGormStore(cfg)
	if err != nil {
		panic(err)
	}
	defer st.Close()

	var cmdShow = &cobra.Command{
		Use:   "show",
		Short: "Show rooms or users",
		Long:  `show is for printing user or room information.`,
		Args:  cobra.MinimumNArgs(0),
	}
	var cmdShowUsers = &cobra.Command{
		Use:   "users",
		Short: "Show users",
		Long:  `shows a listing of all available users.`,
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := opCtx()
			defer cancel()
			users, err := st.ListUsers(ctx)
			if err != nil {
				globals.AppLogger.Error("could not get users", "error", err)
				return
			}
			u, err := json.Marshal(users)
			if err != nil {
				globals.AppLogger.Error("could not marshal users", "error", err)
				return
			}
			fmt.Println(string(u))
		},
	}
	var cmdShowUser = &cobra.Command{
		Use:   "user [user id]",
		Short: "Show user",
		Long:  `show user prints detail information about the user with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := opCtx()
			defer cancel()
			user, err := st.GetUser(ctx, args[0])
			if err != nil {
				globals.AppLogger.Error("could not get user", "error", err)
				return
			}
			u, err := json.Marshal(user)
			if err != nil {
				globals.AppLogger.Error("could not marshal user", "error", err)
				return
			}
			fmt.Println(string(u))
		},
	}
	var cmdShowRooms = &cobra.Command{
		Use:   "rooms",
		Short: "Show rooms",
		Long:  `shows a listing of all available rooms.`,
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := opCtx()
			defer cancel()
			roomList, err := st.ListRooms(ctx)
			if err != nil {
				globals.AppLogger.Error("could not get rooms", "error", err)
				return
			}
			r, err := json.Marshal(roomList)
			if err != nil {
				globals.AppLogger.Error("could not marshal rooms", "error", err)
				return
			}
			fmt.Println(string(r))
		},
	}
	var cmdShowRoom = &cobra.Command{
		Use:   "room [room id]",
		Short: "Show room",
		Long:  `show room prints detail information about the room with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := opCtx()
			defer cancel()
			room, err := st.GetRoom(ctx, args[0])
			if err != nil {
				globals.AppLogger.Error("could not get room", "error", err)
				return
			}
			r, err := json.Marshal(room)
			if err != nil {
				globals.AppLogger.Error("could not marshal room", "error", err)
				return
			}
			fmt.Println(string(r))
		},
	}
	var setUserPassword string
	var cmdSet = &cobra.Command{
		Use:   "set",
		Short: "create/update a user",
		Long:  `set creates or updates a user.`,
		Args:  cobra.MinimumNArgs(0),
	}
	var cmdSetUser = &cobra.Command{
		Use:   "user [user definition]",
		Short: "Set user",
		Long: `set user creates or updates a user with the given JSON definition. If the
user definition is "-", it is read from STDIN. A missing id is generated.
--password sets a new password (stored as an argon2id hash).`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var r io.Reader
			if args[0] == "-" {
				r = os.Stdin
			} else {
				r = bytes.NewReader([]byte(args[0]))
			}
			dec := json.NewDecoder(r)
			user := types.User{}
			err := dec.Decode(&user)
			if err != nil {
				globals.AppLogger.Error("could not decode user", "error", err)
				return
			}
			if user.Id == "" {
				user.Id = uuid.NewString()
			}
			if user.Email == "" {
				globals.AppLogger.Error("no email")
				return
			}
			if user.Role == "" {
				user.Role = types.RoleStudent
			}
			if setUserPassword != "" {
				hash, err := auth.HashPassword(setUserPassword)
				if err != nil {
					globals.AppLogger.Error("could not hash password", "error", err)
					return
				}
				user.Password = &hash
			}
			ctx, cancel := opCtx()
			defer cancel()
			err = st.StoreUser(ctx, &user)
			if err != nil {
				globals.AppLogger.Error("could not store user", "error", err)
				return
			}
			fmt.Println(user.Id)
		},
	}
	cmdSetUser.Flags().StringVar(&setUserPassword, "password", "", "new password for the user")

	var rootCmd = &cobra.Command{Use: "classchat-admin"}
	rootCmd.AddCommand(cmdShow)
	rootCmd.AddCommand(cmdSet)
	cmdShow.AddCommand(cmdShowUsers, cmdShowUser, cmdShowRooms, cmdShowRoom)
	cmdSet.AddCommand(cmdSetUser)
	rootCmd.Execute()
}
