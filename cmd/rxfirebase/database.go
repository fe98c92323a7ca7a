package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/pkg/errors"
)

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print a single value snapshot of a database location",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		snap, err := rt.session.Database().Child(args[0]).GetValue().Await(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout(cmd), snap)
	})
	return cmd
}

func setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set <path> <json>",
		Short:   "Write a JSON value at a database location",
		Example: `  rxfirebase set users/ada '{"name":"Ada"}'`,
		Args:    cobra.ExactArgs(2),
	}

	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		value, err := parseValue(args[1])
		if err != nil {
			return err
		}
		ref, err := rt.session.Publish(value, args[0]).Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ref.Path())
		return nil
	})
	return cmd
}

func pushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <path> <json>",
		Short: "Write a JSON value under a new time ordered key",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		value, err := parseValue(args[1])
		if err != nil {
			return err
		}
		ref, err := rt.session.Database().Child(args[0]).SetValue(value, true).Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ref.Key())
		return nil
	})
	return cmd
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <path> <json object>",
		Short: "Merge the fields of a JSON object into a database location",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		value, err := parseValue(args[1])
		if err != nil {
			return err
		}
		values, ok := value.(map[string]interface{})
		if !ok {
			return errors.BadRequest("update value must be a JSON object", nil)
		}
		ref, err := rt.session.Database().Child(args[0]).UpdateChildren(values).Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ref.Path())
		return nil
	})
	return cmd
}

func removeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a database location",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		ref, err := rt.session.Database().Child(args[0]).RemoveValue().Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ref.Path())
		return nil
	})
	return cmd
}

// watchCmd prints one JSON line per event until interrupted.
func watchCmd() *cobra.Command {
	var event string

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Stream database events at a location until interrupted",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&event, "event", string(entity.EventValue), "value, child_added, child_changed or child_removed")

	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		eventType, err := entity.ParseEventType(event)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(stdout(cmd))
		err = rt.session.Database().Child(args[0]).Observe(eventType).ForEach(ctx, func(snap *entity.DataSnapshot) error {
			return enc.Encode(snap)
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	return cmd
}

func parseValue(raw string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, errors.BadRequest("value must be JSON", err)
	}
	return value, nil
}
