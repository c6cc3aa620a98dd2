// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// chat talks to an OpenAI compatible chat completions API, such as the
// ones served by OpenAI and xAI.
type chat struct {
	client *openai.Client
	config Config
}

func newOpenAI(config Config, key string) *chat {
	clientConfig := openai.DefaultConfig(key)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}

	return &chat{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

func (c *chat) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: float32(*c.config.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty reply")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *chat) close() error {
	return nil
}
