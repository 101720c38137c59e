package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/classchat/classchat/auth"
	"github.com/classchat/classchat/bot"
	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/globals"
	"github.com/classchat/classchat/httpapi"
	"github.com/classchat/classchat/rooms"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/classchat/classchat/ws"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	addr       = pflag.String("addr", "localhost:8000", "service address (including port)")
	sslCert    = pflag.String("ssl-cert", "", "SSL cert (optional)")
	sslKey     = pflag.String("ssl-key", "", "SSL key (optional)")
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Fatal("interrupted!")
	}()

	pflag.CommandLine.AddFlagSet(config.GetFlagSet())
	pflag.Parse()
	log.SetFlags(0)

	cfg, err := config.ReadConfiguration(*configPath, pflag.CommandLine)
	if err != nil {
		panic(err)
	}
	if cfg.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}

	st, err := store.NewGormStore(cfg)
	if err != nil {
		panic(err)
	}
	defer st.Close()

	// the assistant's sentinel identity must exist so history hydration can
	// resolve it after a restart
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = st.StoreUser(ctx, types.BotUser())
	cancel()
	if err != nil {
		panic(err)
	}

	verifier, err := auth.NewVerifier(cfg, st)
	if err != nil {
		panic(err)
	}

	roomRegistry, err := rooms.NewRegistry(st)
	if err != nil {
		panic(err)
	}

	chatbot := bot.NewChatbot(bot.NewResponder(cfg))
	gateway := ws.NewGateway(cfg, st, roomRegistry, verifier, chatbot)

	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.PresenceConfig.LastOnlineCron, func() {
		ids := gateway.Presence().OnlineIds()
		if len(ids) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.UpdateLastOnline(ctx, ids, time.Now()); err != nil {
			globals.AppLogger.Error("could not update last online", "error", err)
		}
	})
	if err != nil {
		panic(err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	router := mux.NewRouter()
	router.HandleFunc("/ws", gateway.HandleWebsocket).Methods(http.MethodGet)
	httpapi.NewHandler(cfg, st, verifier).Register(router)
	http.Handle("/", router)

	globals.AppLogger.Info("listening", "addr", *addr)
	if *sslCert != "" && *sslKey != "" {
		err = http.ListenAndServeTLS(*addr, *sslCert, *sslKey, nil)
	} else {
		err = http.ListenAndServe(*addr, nil)
	}
	globals.AppLogger.Error("stopped listening", "error", err)
}
