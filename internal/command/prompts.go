package command

import (
	"fmt"
	"strings"
)

// buildClassifierPrompt describes the action taxonomy and appends the
// administrator's command.
func buildClassifierPrompt(command string) string {
	var b strings.Builder
	b.WriteString("You translate an administrator's command for a personal finance service into JSON.\n")
	b.WriteString("Classify the command as exactly ONE of the actions below and extract the fields it needs.\n")
	b.WriteString("When a command matches several actions, choose the most composite one ")
	b.WriteString("(actions 4 and 5 take precedence over 1 and 3).\n\n")

	b.WriteString("1. createUser: create a single user only.\n")
	b.WriteString("   payload: {\"name\": string, \"username\": string, \"password\": string}\n")
	b.WriteString("   examples: \"사용자 'hong' 비번 '1234' 생성\", \"임의 사용자 추가해줘\"\n\n")

	b.WriteString("2. createCategory: create a category.\n")
	b.WriteString("   payload: {\"categoryName\": string, \"userId\": string (omit for default categories), \"isDefault\": boolean}\n")
	b.WriteString("   examples: \"기본 카테고리 '여행' 추가\", \"사용자 5번에게 '반려동물' 카테고리 만들어줘\"\n\n")

	b.WriteString("3. addDummyTransactions: add fake transactions to an EXISTING user.\n")
	b.WriteString("   payload: {\"username\": string, \"count\": integer}\n")
	b.WriteString("   example: \"사용자 'testuser'에게 가짜 거래내역 15개 만들어줘\"\n\n")

	b.WriteString("4. createUserAndPopulate: create a random user AND add transactions in one command.\n")
	b.WriteString("   payload: {\"count\": integer}\n")
	b.WriteString("   examples: \"임의의 사용자를 만들고 거래내역 20개를 추가해줘\", \"테스트용 계정 하나 파고 가계부 기록 30개 채워줘\"\n")
	b.WriteString("   output: {\"action\": \"createUserAndPopulate\", \"payload\": {\"count\": 20}}\n\n")

	b.WriteString("5. createUserAndCategories: create a random user AND add income/expense categories.\n")
	b.WriteString("   payload: {\"count\": integer} (number of categories of EACH kind)\n")
	b.WriteString("   examples: \"임의의 계정과 수익지출 카테고리 10개씩 넣어봐\", \"테스트 계정 만들고 카테고리 5개씩 추가해줘\"\n")
	b.WriteString("   output: {\"action\": \"createUserAndCategories\", \"payload\": {\"count\": 10}}\n\n")

	b.WriteString("6. deleteUser: delete an existing user.\n")
	b.WriteString("   payload: {\"username\": string}\n")
	b.WriteString("   example: \"사용자 'testuser'를 삭제해줘\"\n\n")

	b.WriteString("7. unsupported: the command matches none of the above or lacks information.\n")
	b.WriteString("   payload: {\"reason\": string}\n\n")

	b.WriteString("Output format: {\"action\": <action name>, \"payload\": {...}}\n")
	b.WriteString("Return ONLY one valid JSON object. No prose, no code fences, no Markdown.\n\n")
	fmt.Fprintf(&b, "Command: %s\n", command)
	return b.String()
}
