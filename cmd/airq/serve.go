package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zberg/go-airq/internal/exporter"
	"github.com/zberg/go-airq/internal/publisher"
)

func init() {
	rootCmd.AddCommand(exporterCmd)
	rootCmd.AddCommand(publishCmd)

	exporterCmd.Flags().String("listen", "", "Listen address for /metrics and /health (default :9123)")
	addLatestDataFlags(exporterCmd)

	publishCmd.Flags().String("broker", "", "MQTT broker URL (default tcp://localhost:1883)")
	publishCmd.Flags().String("topic", "", "Topic prefix (default airq)")
	publishCmd.Flags().Duration("interval", 0, "Publish interval (default 1m)")
	addLatestDataFlags(publishCmd)
}

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve the device readings as Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		collector := exporter.NewCollector(client, latestDataOptions(cmd), logger)
		collector.SetTimeout(cfg.Device.Timeout)
		reg, err := exporter.NewRegistry(collector)
		if err != nil {
			return err
		}

		logger.Info("starting exporter", "device", client.Address(), "listen", cfg.Exporter.Listen)
		return exporter.NewServer(cfg.Exporter.Listen, reg, logger).Run(cmd.Context())
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the device readings to MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		info, err := client.FetchDeviceInfo(ctx)
		if err != nil {
			return fmt.Errorf("read device info: %w", err)
		}
		topics := publisher.TopicsFor(cfg.MQTT.Topic, info.ID)

		broker, err := publisher.Connect(publisher.BrokerConfig{
			URL:       cfg.MQTT.Broker,
			ClientID:  cfg.MQTT.ClientID + "-" + info.ID,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			WillTopic: topics.Availability,
		})
		if err != nil {
			return err
		}
		defer broker.Close()

		p, err := publisher.New(client, broker, info, cfg.MQTT.Topic, cfg.MQTT.Interval, latestDataOptions(cmd), logger)
		if err != nil {
			return err
		}
		logger.Info("publishing", "device", client.Address(), "broker", cfg.MQTT.Broker, "topic", topics.State, "interval", cfg.MQTT.Interval)
		return p.Run(ctx)
	},
}
