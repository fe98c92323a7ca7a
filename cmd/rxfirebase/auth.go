package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/pkg/stream"
)

func signInCmd() *cobra.Command {
	var email, password, customToken string
	var credential entity.Credential

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and print the signed in user with its tokens",
		Example: `  rxfirebase signin --email ada@example.com --password secret
  rxfirebase signin --provider google.com --id-token <google id token>
  rxfirebase signin --custom-token <token>`,
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&customToken, "custom-token", "", "custom token minted by a trusted server")
	cmd.Flags().StringVar(&credential.ProviderID, "provider", "", "identity provider, e.g. google.com")
	cmd.Flags().StringVar(&credential.IDToken, "id-token", "", "provider ID token")
	cmd.Flags().StringVar(&credential.AccessToken, "access-token", "", "provider access token")
	cmd.Flags().StringVar(&credential.Secret, "secret", "", "provider OAuth token secret")
	cmd.MarkFlagsMutuallyExclusive("email", "custom-token", "provider")

	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		var signIn *stream.Stream[*entity.User]
		switch {
		case customToken != "":
			signIn = rt.session.SignInWithCustomToken(customToken)
		case credential.ProviderID != "":
			signIn = rt.session.SignInWithCredential(credential)
		default:
			signIn = rt.session.SignInWithEmail(email, password)
		}
		return printUser(ctx, cmd, signIn)
	})
	return cmd
}

func signUpCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an email and password account and sign in to it",
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		return printUser(ctx, cmd, rt.session.CreateUser(email, password))
	})
	return cmd
}

func resetPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Send a password reset email",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		if _, err := rt.session.SendPasswordReset(args[0]).Await(ctx); err != nil {
			return err
		}
		fmt.Fprintf(stdout(cmd), "Password reset email sent to %s\n", args[0])
		return nil
	})
	return cmd
}

func printUser(ctx context.Context, cmd *cobra.Command, signIn *stream.Stream[*entity.User]) error {
	user, err := signIn.Await(ctx)
	if err != nil {
		return err
	}
	return printJSON(stdout(cmd), user)
}
