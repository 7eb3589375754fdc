package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zberg/go-airq/pkg/airq"
)

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(averageCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(blinkCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)

	addLatestDataFlags(latestCmd)
	addLatestDataFlags(watchCmd)
	watchCmd.Flags().Duration("every", 10*time.Second, "Polling interval")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the device configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		config, err := client.FetchConfig(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), config)
	},
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Print the current sensor readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		data, err := client.FetchCurrentData(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), data)
	},
}

var averageCmd = &cobra.Command{
	Use:   "average",
	Short: "Print the sensor readings averaged by the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		data, err := client.FetchAverageData(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), data)
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the device log",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		lines, err := client.FetchLog(cmd.Context())
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the device over the encrypted API",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		reply, err := client.Ping(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), reply)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the device is reachable and the password is correct",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.Validate(cmd.Context()); err != nil {
			var authErr *airq.AuthenticationError
			if errors.As(err, &authErr) {
				return fmt.Errorf("wrong password for %s: %w", client.Address(), err)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: password OK\n", client.Address())
		return nil
	},
}

var blinkCmd = &cobra.Command{
	Use:   "blink",
	Short: "Blink the device LEDs and print its ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		id, err := client.Blink(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print a summary of the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		info, err := client.FetchDeviceInfo(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), info)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the latest readings, normalised",
	Long: `Print the latest readings. By default the device average is used,
negative values are clipped to zero, uncertainties are dropped and
sensor-model suffixes are stripped from key names.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		data, err := client.LatestData(cmd.Context(), latestDataOptions(cmd))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), data)
	},
}

type statusReport struct {
	Device    airq.DeviceInfo `json:"device"`
	WarmingUp []string        `json:"warming_up"`
	Data      airq.Response   `json:"data"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device info, warm-up state and latest readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		var report statusReport
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			report.Device, err = client.FetchDeviceInfo(ctx)
			return err
		})
		g.Go(func() error {
			data, err := client.LatestData(ctx, airq.LatestDataOptions{Current: true})
			if err != nil {
				return err
			}
			report.Data = data
			report.WarmingUp = airq.WarmingUpSensors(data)
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		if report.WarmingUp == nil {
			report.WarmingUp = []string{}
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the device and print how each reading changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		every, _ := cmd.Flags().GetDuration("every")
		if every <= 0 {
			return fmt.Errorf("--every must be positive, got %s", every)
		}
		opts := latestDataOptions(cmd)
		ctx := cmd.Context()

		previous, err := client.LatestData(ctx, opts)
		if err != nil {
			return err
		}
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			current, err := client.LatestData(ctx, opts)
			if err != nil {
				logger.Warn("poll failed", "error", err)
				continue
			}
			if err := printJSON(cmd.OutOrStdout(), airq.Compare(current, previous)); err != nil {
				return err
			}
			previous = current
		}
	},
}

func addLatestDataFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("current", false, "Use current readings instead of the device average")
	cmd.Flags().Bool("keep-negative", false, "Do not clip negative values to zero")
	cmd.Flags().Bool("keep-uncertainties", false, "Keep [value, uncertainty] pairs")
	cmd.Flags().Bool("keep-original-keys", false, "Keep sensor-model suffixes such as _SPS30")
}

func latestDataOptions(cmd *cobra.Command) airq.LatestDataOptions {
	current, _ := cmd.Flags().GetBool("current")
	keepNegative, _ := cmd.Flags().GetBool("keep-negative")
	keepUncertainties, _ := cmd.Flags().GetBool("keep-uncertainties")
	keepKeys, _ := cmd.Flags().GetBool("keep-original-keys")
	return airq.LatestDataOptions{
		Current:           current,
		KeepNegative:      keepNegative,
		KeepUncertainties: keepUncertainties,
		KeepOriginalKeys:  keepKeys,
	}
}

func getClient() (*airq.Client, error) {
	client, err := cfg.NewClient(logger)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
