package graph

import (
	"context"
	"fmt"
	"io"
)

// DeviceCode is what the user needs to complete sign-in on another device.
type DeviceCode struct {
	UserCode        string
	VerificationURL string
	Message         string // Ready-to-print instructions from the identity provider
}

// DeviceCodePrompter shows a device code to the user. It is called once the
// device-code flow starts; returning an error aborts the sign-in.
type DeviceCodePrompter interface {
	PromptDeviceCode(ctx context.Context, code DeviceCode) error
}

// PrompterFunc adapts a function to DeviceCodePrompter.
type PrompterFunc func(ctx context.Context, code DeviceCode) error

func (f PrompterFunc) PromptDeviceCode(ctx context.Context, code DeviceCode) error {
	return f(ctx, code)
}

// WriterPrompter prints the device code message to W.
type WriterPrompter struct {
	W io.Writer
}

func (p WriterPrompter) PromptDeviceCode(_ context.Context, code DeviceCode) error {
	msg := code.Message
	if msg == "" {
		msg = fmt.Sprintf("To sign in, use a web browser to open the page %s and enter the code %s to authenticate.",
			code.VerificationURL, code.UserCode)
	}
	_, err := fmt.Fprintln(p.W, msg)
	return err
}
