package bot

// Messages shown to contestants and staff.
const (
	messagePong = "pong!"

	messageUnexpectedError        = "予期しないエラーが発生しました。"
	messageUnexpectedErrorContact = "予期しないエラーが発生しました。運営にお問い合わせください。"

	messageDMOnly         = "このコマンドはDM以外から呼び出すことはできません。"
	messageTextOnly       = "このコマンドはテキストチャンネル以外から呼び出すことはできません。"
	messageQuestionThread = "このコマンドは質問スレッド以外から呼び出すことはできません。"
	messageGuildOnly      = "このコマンドはDMから呼び出すことはできません。"

	messageInvalidInvitationCode = "招待コード `%s` に対応するチームはありません。招待コードを再度お確かめください。"
	messageNotInGuild            = "ICTSC Discordチャンネルにまだ参加していません。参加した後に再度お試しください。"
	messageJoined                = "チーム `%s` に参加しました。"

	messageTeamRoleNotFound = "チームのroleが見つかりませんでした。運営にお問い合わせください。"
	messageSynced           = "チーム `%s` のロールを付与しました。"

	messageTitleTooLong = "質問のタイトルは50文字以内でなければなりません。「問題〇〇の初期条件について」など、簡潔にまとめて再度お試しください。"
	messageAskStarted   = "%s 質問スレッドを開始します。"
	messageArchived     = "質問スレッドを終了しました。"

	messageInvalidProblemCode = "問題コード `%s` に対応する問題はありません。問題コードを再度お確かめください。"
	messageRedeployConfirm    = "チーム `%s` の問題 `%s` を再展開しますか？"
	messageRedeployCanceled   = "再展開をやめました。"
	messageRedeployStarted    = "再展開を開始しました。"
	messageRedeployFailed     = "再展開を失敗しました。"
	messageRedeployQueued     = "問題 `%s` は既に再展開中です。完了してから再度お試しください。"
	messageRedeployExpired    = "確認の有効期限が切れました。再度 /redeploy を実行してください。"
	messageRedeployNotYours   = "この確認は他のユーザーのものです。"

	messageStatusHeader      = "チーム `%s` の問題環境"
	messageStatusRedeploying = "再展開中"
	messageStatusIdle        = "待機中"
	messageStatusNever       = "再展開履歴なし"
)
