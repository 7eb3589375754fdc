package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(shutdownCmd)

	setCmd.AddCommand(setNameCmd)
	setCmd.AddCommand(setTimeServerCmd)
	setCmd.AddCommand(setCloudRemoteCmd)
	setCmd.AddCommand(setLEDThemeCmd)
	setCmd.AddCommand(setIfconfigCmd)
	setIfconfigCmd.AddCommand(setIfconfigStaticCmd)
	setIfconfigCmd.AddCommand(setIfconfigDHCPCmd)

	setLEDThemeCmd.Flags().String("left", "", "Theme of the left LED strip")
	setLEDThemeCmd.Flags().String("right", "", "Theme of the right LED strip")
	shutdownCmd.Flags().Bool("yes", false, "Confirm the shutdown")
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change device settings",
}

var setNameCmd = &cobra.Command{
	Use:   "name [device-name]",
	Short: "Set the device name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.SetDeviceName(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Command sent successfully.")
		return nil
	},
}

var setTimeServerCmd = &cobra.Command{
	Use:   "time-server [host]",
	Short: "Set the NTP server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.SetTimeServer(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Command sent successfully.")
		return nil
	},
}

var setCloudRemoteCmd = &cobra.Command{
	Use:       "cloud-remote [on|off]",
	Short:     "Enable or disable the cloud upload",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.SetCloudRemote(cmd.Context(), args[0] == "on"); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Command sent successfully.")
		return nil
	},
}

var setLEDThemeCmd = &cobra.Command{
	Use:   "led-theme",
	Short: "Set the LED theme of one or both strips",
	Long: `Set the LED theme of one or both strips. Run "airq config" and look
at possibleLedTheme for the themes the firmware accepts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		left, _ := cmd.Flags().GetString("left")
		right, _ := cmd.Flags().GetString("right")
		if left == "" && right == "" {
			return errors.New("at least one of --left and --right is required")
		}

		client, err := getClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		switch {
		case left != "" && right != "":
			err = client.SetLEDThemeBoth(ctx, left, right)
		case left != "":
			err = client.SetLEDThemeLeft(ctx, left)
		default:
			err = client.SetLEDThemeRight(ctx, right)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Command sent successfully.")
		return nil
	},
}

var setIfconfigCmd = &cobra.Command{
	Use:   "ifconfig",
	Short: "Configure the network setup (applied after restart)",
}

var setIfconfigStaticCmd = &cobra.Command{
	Use:   "static [ip] [subnet] [gateway] [dns]",
	Short: "Use a static IPv4 setup",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.SetIfconfigStatic(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Command sent successfully. Run \"airq restart\" to apply.")
		return nil
	},
}

var setIfconfigDHCPCmd = &cobra.Command{
	Use:   "dhcp",
	Short: "Go back to DHCP",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.SetIfconfigDHCP(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Command sent successfully. Run \"airq restart\" to apply.")
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.Restart(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Restarting.")
		return nil
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Power the device down",
	Long:  `Power the device down. It has to be switched on again by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return errors.New("the device must be switched on again by hand; pass --yes to confirm")
		}
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.Shutdown(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is shutting down.\n", client.Address())
		return nil
	},
}
