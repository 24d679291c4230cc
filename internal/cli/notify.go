package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/notify"
)

var flagBroker string

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Mosque announcements and reminders",
	}

	listen := &cobra.Command{
		Use:   "listen",
		Short: "Print notifications as the mosque sends them",
		Long: "Subscribe to the mosque's notification topic on the MQTT broker and print each\n" +
			"announcement, event, donation appeal and prayer reminder until interrupted.",
		RunE: runNotifyListen,
	}
	listen.Flags().StringVar(&flagBroker, "broker", "", "MQTT broker URL (overrides config, e.g. tcp://localhost:1883)")
	cmd.AddCommand(listen)

	return cmd
}

func runNotifyListen(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("broker") {
		if err := cfg.Set("mqtt_broker", flagBroker); err != nil {
			return fmt.Errorf("--broker: %w", err)
		}
	}
	if cfg.MosqueID == "" {
		return fmt.Errorf("no mosque configured; run 'mosque-times config set mosque_id <id>' or pass --mosque")
	}

	out := cmd.OutOrStdout()
	handler := func(n notify.Local) {
		if FlagJSON {
			data, _ := json.Marshal(n)
			fmt.Fprintln(out, string(data))
			return
		}
		fmt.Fprintf(out, "%s %s\n", theme.Gray(time.Now().Format("15:04")), theme.Bold(n.String()))
	}

	clientID := fmt.Sprintf("mosque-times-%d", os.Getpid())
	l := notify.NewListener(cfg.MQTTBroker, clientID, cfg.MosqueID, handler)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return l.Run(ctx)
}
